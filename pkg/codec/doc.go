// Package codec provides the wire primitives of the TagFile container format.
//
// A TagFile is a plain concatenation of entries in write order. There is no
// file header, footer, version field or entry count. Each entry is laid out as:
//
//	[START(2)][NameLen(4)][Name][TagLen(4)][Tag][Payload]
//
// Fields:
//   - START: the constant 20 as an unsigned 16-bit integer (little-endian),
//     i.e. the bytes 0x14 0x00
//   - NameLen, TagLen: 32-bit unsigned byte counts (little-endian)
//   - Name, Tag: UTF-8 text
//   - Payload: bytes produced by the adapter registered for Tag
//
// All multi-byte integers are little-endian.
//
// # Framing
//
// START is the only structural delimiter. There is no end-of-entry marker and
// no payload length, so payloads must be self-framing: the adapter that wrote
// a payload is the only thing that knows where it ends.
//
// Readers that need to locate an entry scan forward byte by byte looking for
// START (see PeekMarker). Payload bytes that happen to contain 0x14 0x00 can
// be mistaken for the start of an entry. This is a known limitation of the
// format and is not detected.
//
// # End of stream
//
// Reads report their outcome as a ReadResult next to the usual error. A short
// read is ResultEOF, never an error, so scanning loops can stop on exhaustion
// without inspecting error values. ResultError is reserved for I/O failures.
//
// # Usage
//
//	var buf bytes.Buffer
//	if err := codec.WriteMarker(&buf); err != nil {
//	    return err
//	}
//	if err := codec.WriteString(&buf, "greeting"); err != nil {
//	    return err
//	}
//
//	r := bufio.NewReader(&buf)
//	isStart, res, err := codec.PeekMarker(r)
package codec
