package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

// StartMarker precedes every entry name
const StartMarker uint16 = 20

// MarkerSize is the encoded size of StartMarker in bytes
const MarkerSize = 2

// LengthSize is the encoded size of a length prefix in bytes
const LengthSize = 4

// ReadResult describes how a read ended
type ReadResult int

const (
	// ResultOK means the full field was read
	ResultOK ReadResult = iota
	// ResultEOF means the stream ended before the field was complete
	ResultEOF
	// ResultError means the underlying reader failed
	ResultError
)

func (r ReadResult) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultEOF:
		return "eof"
	case ResultError:
		return "error"
	default:
		return fmt.Sprintf("ReadResult(%d)", int(r))
	}
}

var (
	// ErrInvalidString is returned when writing text that is not valid UTF-8
	ErrInvalidString = errors.New("string is not valid UTF-8")
	// ErrStringTooLong is returned when a string does not fit a 32-bit length prefix
	ErrStringTooLong = errors.New("string exceeds maximum encodable length")
)

var markerBytes = func() []byte {
	b := make([]byte, MarkerSize)
	binary.LittleEndian.PutUint16(b, StartMarker)
	return b
}()

// MarkerBytes returns the encoded START marker
func MarkerBytes() []byte {
	return append([]byte(nil), markerBytes...)
}

// WriteMarker writes the START marker
func WriteMarker(w io.Writer) error {
	_, err := w.Write(markerBytes)
	return err
}

// WriteUint32 writes v as 4 little-endian bytes
func WriteUint32(w io.Writer, v uint32) error {
	var b [LengthSize]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteString writes a length-prefixed UTF-8 string
func WriteString(w io.Writer, s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidString
	}
	if uint64(len(s)) > math.MaxUint32 {
		return ErrStringTooLong
	}
	if err := WriteUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// EncodeEntryHeader returns the marker, name and tag of an entry as they
// appear on the wire. The payload follows immediately.
func EncodeEntryHeader(name, tag string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(MarkerSize + 2*LengthSize + len(name) + len(tag))
	if err := WriteMarker(&buf); err != nil {
		return nil, err
	}
	if err := WriteString(&buf, name); err != nil {
		return nil, fmt.Errorf("encode name: %w", err)
	}
	if err := WriteString(&buf, tag); err != nil {
		return nil, fmt.Errorf("encode tag: %w", err)
	}
	return buf.Bytes(), nil
}

// PeekMarker reports whether the next two bytes of r are the START marker.
// Nothing is consumed; callers discard one byte on a miss and MarkerSize
// bytes on a hit.
func PeekMarker(r *bufio.Reader) (bool, ReadResult, error) {
	b, err := r.Peek(MarkerSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, ResultEOF, nil
		}
		return false, ResultError, err
	}
	return binary.LittleEndian.Uint16(b) == StartMarker, ResultOK, nil
}

// PeekLength returns the length prefix that starts skip bytes ahead in r,
// without consuming anything
func PeekLength(r *bufio.Reader, skip int) (uint32, ReadResult, error) {
	b, err := r.Peek(skip + LengthSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ResultEOF, nil
		}
		return 0, ResultError, err
	}
	return binary.LittleEndian.Uint32(b[skip:]), ResultOK, nil
}

// ReadMarker consumes two bytes and reports whether they are the START marker
func ReadMarker(r io.Reader) (bool, ReadResult, error) {
	var b [MarkerSize]byte
	res, err := readFull(r, b[:])
	if res != ResultOK {
		return false, res, err
	}
	return binary.LittleEndian.Uint16(b[:]) == StartMarker, ResultOK, nil
}

// ReadUint32 reads a 4 byte little-endian integer
func ReadUint32(r io.Reader) (uint32, ReadResult, error) {
	var b [LengthSize]byte
	res, err := readFull(r, b[:])
	if res != ResultOK {
		return 0, res, err
	}
	return binary.LittleEndian.Uint32(b[:]), ResultOK, nil
}

// ReadString reads a length-prefixed string. The declared length is never
// allocated up front: a corrupt prefix ends in ResultEOF once the stream runs
// out instead of a large allocation.
//
// The bytes are returned as-is; UTF-8 is only enforced on write.
func ReadString(r io.Reader) (string, ReadResult, error) {
	n, res, err := ReadUint32(r)
	if res != ResultOK {
		return "", res, err
	}
	if n == 0 {
		return "", ResultOK, nil
	}

	var sb strings.Builder
	copied, err := io.CopyN(&sb, r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", ResultEOF, nil
		}
		return "", ResultError, err
	}
	if copied != int64(n) {
		return "", ResultEOF, nil
	}
	return sb.String(), ResultOK, nil
}

// ReadBytes reads exactly n bytes, growing the buffer as data arrives
func ReadBytes(r io.Reader, n uint32) ([]byte, ReadResult, error) {
	if n == 0 {
		return []byte{}, ResultOK, nil
	}
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ResultEOF, nil
		}
		return nil, ResultError, err
	}
	if copied != int64(n) {
		return nil, ResultEOF, nil
	}
	return buf.Bytes(), ResultOK, nil
}

func readFull(r io.Reader, b []byte) (ReadResult, error) {
	if _, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ResultEOF, nil
		}
		return ResultError, err
	}
	return ResultOK, nil
}
