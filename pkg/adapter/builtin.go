package adapter

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ssargent/tagfile/pkg/codec"
)

// maxPrealloc caps slice capacity taken from an untrusted count field
const maxPrealloc = 1024

// Builtins returns one instance of every built-in adapter
func Builtins() []Adapter {
	return []Adapter{
		String{},
		StringArray{},
		Int32{},
		Int32Array{},
		Bool{},
		Bytes{},
		EmbeddedFile{},
	}
}

// String stores UTF-8 text with the shared length-prefixed encoding
type String struct{}

func (String) Tag() string { return TagString }

func (String) Encode(w io.Writer, v any) error {
	s, ok := v.(string)
	if !ok {
		return unsupported(TagString, v)
	}
	return codec.WriteString(w, s)
}

func (String) Decode(r io.Reader) (any, error) {
	s, res, err := codec.ReadString(r)
	if res != codec.ResultOK {
		return nil, malformed(TagString, "text", res, err)
	}
	return s, nil
}

func (String) ParseText(s string) (any, error) { return s, nil }

// StringArray stores a count followed by that many strings
type StringArray struct{}

func (StringArray) Tag() string { return TagStringArray }

func (StringArray) Encode(w io.Writer, v any) error {
	items, ok := v.([]string)
	if !ok {
		return unsupported(TagStringArray, v)
	}
	if uint64(len(items)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s: too many items", ErrUnsupportedValue, TagStringArray)
	}
	if err := codec.WriteUint32(w, uint32(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := codec.WriteString(w, item); err != nil {
			return err
		}
	}
	return nil
}

func (StringArray) Decode(r io.Reader) (any, error) {
	n, res, err := codec.ReadUint32(r)
	if res != codec.ResultOK {
		return nil, malformed(TagStringArray, "count", res, err)
	}
	items := make([]string, 0, min(int(n), maxPrealloc))
	for i := uint32(0); i < n; i++ {
		s, res, err := codec.ReadString(r)
		if res != codec.ResultOK {
			return nil, malformed(TagStringArray, fmt.Sprintf("item %d", i), res, err)
		}
		items = append(items, s)
	}
	return items, nil
}

// ParseText splits a comma separated list
func (StringArray) ParseText(s string) (any, error) {
	if s == "" {
		return []string{}, nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func (StringArray) FormatText(v any) string {
	items, ok := v.([]string)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return strings.Join(items, ",")
}

// Int32 stores a signed 32-bit integer in 4 little-endian bytes.
// Encode accepts int32 and int values that fit; Decode returns int32.
type Int32 struct{}

func (Int32) Tag() string { return TagInt }

func (Int32) Encode(w io.Writer, v any) error {
	n, err := toInt32(TagInt, v)
	if err != nil {
		return err
	}
	return codec.WriteUint32(w, uint32(n))
}

func (Int32) Decode(r io.Reader) (any, error) {
	u, res, err := codec.ReadUint32(r)
	if res != codec.ResultOK {
		return nil, malformed(TagInt, "value", res, err)
	}
	return int32(u), nil
}

func (Int32) ParseText(s string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", TagInt, err)
	}
	return int32(n), nil
}

// Int32Array stores a count followed by that many 32-bit integers
type Int32Array struct{}

func (Int32Array) Tag() string { return TagIntArray }

func (Int32Array) Encode(w io.Writer, v any) error {
	var items []int32
	switch vv := v.(type) {
	case []int32:
		items = vv
	case []int:
		items = make([]int32, len(vv))
		for i, n := range vv {
			m, err := toInt32(TagIntArray, n)
			if err != nil {
				return err
			}
			items[i] = m
		}
	default:
		return unsupported(TagIntArray, v)
	}
	if uint64(len(items)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s: too many items", ErrUnsupportedValue, TagIntArray)
	}

	buf := make([]byte, codec.LengthSize*(len(items)+1))
	binary.LittleEndian.PutUint32(buf, uint32(len(items)))
	for i, n := range items {
		binary.LittleEndian.PutUint32(buf[codec.LengthSize*(i+1):], uint32(n))
	}
	_, err := w.Write(buf)
	return err
}

func (Int32Array) Decode(r io.Reader) (any, error) {
	n, res, err := codec.ReadUint32(r)
	if res != codec.ResultOK {
		return nil, malformed(TagIntArray, "count", res, err)
	}
	items := make([]int32, 0, min(int(n), maxPrealloc))
	for i := uint32(0); i < n; i++ {
		u, res, err := codec.ReadUint32(r)
		if res != codec.ResultOK {
			return nil, malformed(TagIntArray, fmt.Sprintf("item %d", i), res, err)
		}
		items = append(items, int32(u))
	}
	return items, nil
}

// ParseText parses a comma separated list of integers
func (Int32Array) ParseText(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return []int32{}, nil
	}
	parts := strings.Split(s, ",")
	items := make([]int32, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse %s item %d: %w", TagIntArray, i, err)
		}
		items[i] = int32(n)
	}
	return items, nil
}

func (Int32Array) FormatText(v any) string {
	items, ok := v.([]int32)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	parts := make([]string, len(items))
	for i, n := range items {
		parts[i] = strconv.FormatInt(int64(n), 10)
	}
	return strings.Join(parts, ",")
}

// Bool stores a single byte, 1 for true and 0 for false
type Bool struct{}

func (Bool) Tag() string { return TagBool }

func (Bool) Encode(w io.Writer, v any) error {
	b, ok := v.(bool)
	if !ok {
		return unsupported(TagBool, v)
	}
	var out byte
	if b {
		out = 1
	}
	_, err := w.Write([]byte{out})
	return err
}

func (Bool) Decode(r io.Reader) (any, error) {
	b, res, err := codec.ReadBytes(r, 1)
	if res != codec.ResultOK {
		return nil, malformed(TagBool, "value", res, err)
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return nil, fmt.Errorf("%w: %s: invalid byte 0x%02x", ErrMalformedPayload, TagBool, b[0])
	}
}

func (Bool) ParseText(s string) (any, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", TagBool, err)
	}
	return b, nil
}

// Bytes stores a length-prefixed raw byte sequence
type Bytes struct{}

func (Bytes) Tag() string { return TagBytes }

func (Bytes) Encode(w io.Writer, v any) error {
	b, ok := v.([]byte)
	if !ok {
		return unsupported(TagBytes, v)
	}
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s: value too large", ErrUnsupportedValue, TagBytes)
	}
	if err := codec.WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func (Bytes) Decode(r io.Reader) (any, error) {
	n, res, err := codec.ReadUint32(r)
	if res != codec.ResultOK {
		return nil, malformed(TagBytes, "length", res, err)
	}
	b, res, err := codec.ReadBytes(r, n)
	if res != codec.ResultOK {
		return nil, malformed(TagBytes, "data", res, err)
	}
	return b, nil
}

// ParseText decodes hex text
func (Bytes) ParseText(s string) (any, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", TagBytes, err)
	}
	return b, nil
}

func (Bytes) FormatText(v any) string {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return hex.EncodeToString(b)
}

func toInt32(tag string, v any) (int32, error) {
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %s: %d overflows int32", ErrUnsupportedValue, tag, n)
		}
		return int32(n), nil
	default:
		return 0, unsupported(tag, v)
	}
}
