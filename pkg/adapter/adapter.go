// Package adapter defines the type adapters that encode and decode entry
// payloads, and the registry that resolves them by tag.
//
// An adapter is a stateless encode/decode pair bound to a stable tag. The
// container stores the tag next to every payload and uses it to pick the
// adapter on read. Payloads carry no outer length, so every adapter must be
// self-framing: Decode consumes exactly the bytes Encode produced.
package adapter

import (
	"errors"
	"fmt"
	"io"

	"github.com/ssargent/tagfile/pkg/codec"
)

// Default tags of the built-in adapters
const (
	TagString      = "string"
	TagStringArray = "string[]"
	TagInt         = "int"
	TagIntArray    = "int[]"
	TagBool        = "bool"
	TagBytes       = "bytes"
	TagFile        = "file"
)

var (
	// ErrMalformedPayload is returned by Decode when the stream ends early or
	// holds an impossible value
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnsupportedValue is returned by Encode for values of the wrong Go type
	ErrUnsupportedValue = errors.New("unsupported value type")
	// ErrEmptyTag is returned when registering an adapter without a tag
	ErrEmptyTag = errors.New("adapter tag must not be empty")
	// ErrNilAdapter is returned when registering a nil adapter
	ErrNilAdapter = errors.New("adapter must not be nil")
)

// Adapter encodes and decodes one data type
type Adapter interface {
	// Tag identifies the adapter inside a registry and on disk
	Tag() string
	// Encode appends the binary form of v to w
	Encode(w io.Writer, v any) error
	// Decode reads back exactly what Encode wrote
	Decode(r io.Reader) (any, error)
}

// TextParser is implemented by adapters that can build a value from user text
type TextParser interface {
	ParseText(s string) (any, error)
}

// TextFormatter is implemented by adapters that can render a value for display
type TextFormatter interface {
	FormatText(v any) string
}

// Format renders v with a's TextFormatter, falling back to %v
func Format(a Adapter, v any) string {
	if f, ok := a.(TextFormatter); ok {
		return f.FormatText(v)
	}
	return fmt.Sprintf("%v", v)
}

// Parse builds a value from text using a's TextParser
func Parse(a Adapter, s string) (any, error) {
	p, ok := a.(TextParser)
	if !ok {
		return nil, fmt.Errorf("adapter %q cannot parse text values", a.Tag())
	}
	return p.ParseText(s)
}

// Rename returns a with a different tag. Text parsing and formatting keep
// working through the returned adapter.
func Rename(a Adapter, tag string) Adapter {
	return &renamed{inner: a, tag: tag}
}

type renamed struct {
	inner Adapter
	tag   string
}

func (r *renamed) Tag() string                      { return r.tag }
func (r *renamed) Encode(w io.Writer, v any) error  { return r.inner.Encode(w, v) }
func (r *renamed) Decode(rd io.Reader) (any, error) { return r.inner.Decode(rd) }

func (r *renamed) ParseText(s string) (any, error) {
	return Parse(r.inner, s)
}

func (r *renamed) FormatText(v any) string {
	return Format(r.inner, v)
}

// malformed wraps a failed or truncated read of one payload field
func malformed(tag, field string, res codec.ReadResult, err error) error {
	if res == codec.ResultError && err != nil {
		return fmt.Errorf("%w: %s: reading %s: %v", ErrMalformedPayload, tag, field, err)
	}
	return fmt.Errorf("%w: %s: stream ended while reading %s", ErrMalformedPayload, tag, field)
}

func unsupported(tag string, v any) error {
	return fmt.Errorf("%w: %s adapter cannot encode %T", ErrUnsupportedValue, tag, v)
}
