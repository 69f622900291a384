package container

import (
	"bufio"
	"io"

	"github.com/ssargent/tagfile/pkg/codec"
)

// scanner walks a container stream looking for START markers.
//
// It never skips a payload: after a miss it slides forward a single byte, so
// payload bytes that encode START are treated as an entry boundary. A marker
// whose name length would run past the end of the stream is not a boundary.
type scanner struct {
	reader *bufio.Reader
	offset int64 // Bytes consumed so far
	size   int64 // Stream length, or -1 when unknown
}

func newScanner(r io.Reader, size int64) *scanner {
	return &scanner{reader: bufio.NewReader(r), size: size}
}

// Read implements io.Reader so adapters can decode straight from the scan
// position while the offset stays accurate
func (s *scanner) Read(p []byte) (int, error) {
	n, err := s.reader.Read(p)
	s.offset += int64(n)
	return n, err
}

// Offset returns the number of bytes consumed
func (s *scanner) Offset() int64 {
	return s.offset
}

// nextName advances past the next START marker and returns the name after
// it. ok is false once the stream is exhausted; err is only set for I/O
// failures.
func (s *scanner) nextName() (name string, ok bool, err error) {
	for {
		isStart, res, err := codec.PeekMarker(s.reader)
		switch res {
		case codec.ResultEOF:
			return "", false, nil
		case codec.ResultError:
			return "", false, err
		}

		if !isStart {
			s.discard(1)
			continue
		}

		fits, err := s.stringFits(codec.MarkerSize)
		if err != nil {
			return "", false, err
		}
		if !fits {
			s.discard(1)
			continue
		}
		s.discard(codec.MarkerSize)

		name, res, err = codec.ReadString(s)
		switch res {
		case codec.ResultEOF:
			return "", false, nil
		case codec.ResultError:
			return "", false, err
		}
		return name, true, nil
	}
}

// readTag reads the tag that follows a name. ok is false when the tag does
// not fit in the rest of the stream; nothing is consumed in that case.
func (s *scanner) readTag() (tag string, ok bool, err error) {
	fits, err := s.stringFits(0)
	if err != nil || !fits {
		return "", false, err
	}

	tag, res, err := codec.ReadString(s)
	switch res {
	case codec.ResultEOF:
		return "", false, nil
	case codec.ResultError:
		return "", false, err
	}
	return tag, true, nil
}

// stringFits reports whether a length-prefixed string starting skip bytes
// ahead ends within the stream
func (s *scanner) stringFits(skip int) (bool, error) {
	n, res, err := codec.PeekLength(s.reader, skip)
	switch res {
	case codec.ResultEOF:
		return false, nil
	case codec.ResultError:
		return false, err
	}
	if s.size < 0 {
		return true, nil
	}
	end := s.offset + int64(skip) + codec.LengthSize + int64(n)
	return end <= s.size, nil
}

// discard drops n bytes that were already peeked
func (s *scanner) discard(n int) {
	d, _ := s.reader.Discard(n)
	s.offset += int64(d)
}
