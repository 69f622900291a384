package adapter

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ssargent/tagfile/pkg/codec"
)

// File is the value stored by EmbeddedFile: a file's base name and contents
type File struct {
	Name string
	Data []byte
}

// LoadFile reads path into a File
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read embedded file: %w", err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Save writes the file into dir under its base name and returns the path
func (f File) Save(dir string) (string, error) {
	name := filepath.Base(f.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("embedded file has no usable name: %q", f.Name)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.Data, 0600); err != nil {
		return "", fmt.Errorf("failed to write embedded file: %w", err)
	}
	return path, nil
}

// EmbeddedFile stores a file's name and bytes inside an entry.
//
// Encode accepts a File, a *File, or a string path that is read from disk at
// encode time. Decode always returns a File.
type EmbeddedFile struct{}

func (EmbeddedFile) Tag() string { return TagFile }

func (EmbeddedFile) Encode(w io.Writer, v any) error {
	var f File
	switch vv := v.(type) {
	case File:
		f = vv
	case *File:
		if vv == nil {
			return unsupported(TagFile, v)
		}
		f = *vv
	case string:
		loaded, err := LoadFile(vv)
		if err != nil {
			return err
		}
		f = loaded
	default:
		return unsupported(TagFile, v)
	}
	if uint64(len(f.Data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s: file too large", ErrUnsupportedValue, TagFile)
	}

	if err := codec.WriteString(w, f.Name); err != nil {
		return err
	}
	if err := codec.WriteUint32(w, uint32(len(f.Data))); err != nil {
		return err
	}
	_, err := w.Write(f.Data)
	return err
}

func (EmbeddedFile) Decode(r io.Reader) (any, error) {
	name, res, err := codec.ReadString(r)
	if res != codec.ResultOK {
		return nil, malformed(TagFile, "name", res, err)
	}
	n, res, err := codec.ReadUint32(r)
	if res != codec.ResultOK {
		return nil, malformed(TagFile, "length", res, err)
	}
	data, res, err := codec.ReadBytes(r, n)
	if res != codec.ResultOK {
		return nil, malformed(TagFile, "data", res, err)
	}
	return File{Name: name, Data: data}, nil
}

// ParseText treats the text as a path on disk
func (EmbeddedFile) ParseText(s string) (any, error) {
	return LoadFile(s)
}

func (EmbeddedFile) FormatText(v any) string {
	f, ok := v.(File)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s (%d bytes)", f.Name, len(f.Data))
}
