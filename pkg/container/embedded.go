package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ssargent/tagfile/pkg/adapter"
	"github.com/ssargent/tagfile/pkg/codec"
)

// encodeEntry writes marker, name, tag and payload. Nothing reaches w unless
// the payload encodes successfully.
func encodeEntry(w io.Writer, a adapter.Adapter, value any, name, tag string) error {
	header, err := codec.EncodeEntryHeader(name, tag)
	if err != nil {
		return err
	}

	buf := bytes.NewBuffer(header)
	if err := a.Encode(buf, value); err != nil {
		return err
	}

	_, err = w.Write(buf.Bytes())
	return err
}

// WriteEmbedded writes one entry to w at its current position. No index is
// involved; the caller is responsible for name uniqueness.
func WriteEmbedded(w io.Writer, reg *adapter.Registry, value any, name, tag string) error {
	if name == "" {
		return ErrInvalidName
	}
	if reg == nil {
		return ErrNoRegistry
	}
	a, ok := reg.Get(tag)
	if !ok {
		return &AdapterNotRegisteredError{Tag: tag}
	}
	if err := encodeEntry(w, a, value, name, tag); err != nil {
		return fmt.Errorf("failed to write embedded entry %q: %w", name, err)
	}
	return nil
}

// ReadEmbedded reads the entry at r's current position. It does not scan:
// if the next bytes are not a START marker followed by name, it returns
// *EntryNotFoundError straight away.
func ReadEmbedded(r io.Reader, reg *adapter.Registry, name string) (any, error) {
	entry, err := ReadEmbeddedEntry(r, reg, name)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// ReadEmbeddedEntry is ReadEmbedded returning the tag as well
func ReadEmbeddedEntry(r io.Reader, reg *adapter.Registry, name string) (*Entry, error) {
	if reg == nil {
		return nil, ErrNoRegistry
	}
	isStart, res, err := codec.ReadMarker(r)
	if res == codec.ResultError {
		return nil, fmt.Errorf("failed to read embedded marker: %w", err)
	}
	if res == codec.ResultEOF || !isStart {
		return nil, &EntryNotFoundError{Name: name}
	}

	got, res, err := codec.ReadString(r)
	if res == codec.ResultError {
		return nil, fmt.Errorf("failed to read embedded name: %w", err)
	}
	if res == codec.ResultEOF || got != name {
		return nil, &EntryNotFoundError{Name: name}
	}

	tag, res, err := codec.ReadString(r)
	switch res {
	case codec.ResultError:
		return nil, fmt.Errorf("failed to read embedded tag: %w", err)
	case codec.ResultEOF:
		return nil, fmt.Errorf("%w: stream ended while reading tag of %q", adapter.ErrMalformedPayload, name)
	}

	a, ok := reg.Get(tag)
	if !ok {
		return nil, &AdapterNotRegisteredError{Tag: tag}
	}

	value, err := a.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedded entry %q: %w", name, err)
	}
	return &Entry{Name: name, Tag: tag, Value: value}, nil
}

// ReadEmbeddedAs reads an embedded entry and asserts its type
func ReadEmbeddedAs[T any](r io.Reader, reg *adapter.Registry, name string) (T, error) {
	var zero T
	v, err := ReadEmbedded(r, reg, name)
	if err != nil {
		return zero, err
	}
	return assertType[T](name, v)
}

// WriteEmbedded writes one entry to w using the container's registry
func (c *Container) WriteEmbedded(w io.Writer, value any, name, tag string) error {
	if c.closed {
		return ErrClosed
	}
	return WriteEmbedded(w, c.registry, value, name, tag)
}

// ReadEmbedded reads one entry from r using the container's registry
func (c *Container) ReadEmbedded(r io.Reader, name string) (any, error) {
	if c.closed {
		return nil, ErrClosed
	}
	return ReadEmbedded(r, c.registry, name)
}
