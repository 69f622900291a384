package codec_test

import (
	"bufio"
	"bytes"
	"fmt"
	"log"

	"github.com/ssargent/tagfile/pkg/codec"
)

// ExampleEncodeEntryHeader shows the bytes that precede every payload
func ExampleEncodeEntryHeader() {
	header, err := codec.EncodeEntryHeader("greeting", "string")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Header is %d bytes\n", len(header))
	fmt.Printf("Marker: % x\n", header[:codec.MarkerSize])

	// Output:
	// Header is 24 bytes
	// Marker: 14 00
}

// ExamplePeekMarker demonstrates the byte-by-byte marker scan
func ExamplePeekMarker() {
	var buf bytes.Buffer
	buf.Write([]byte{0xAA, 0xBB, 0xCC}) // unrelated leading bytes
	if err := codec.WriteMarker(&buf); err != nil {
		log.Fatal(err)
	}
	if err := codec.WriteString(&buf, "greeting"); err != nil {
		log.Fatal(err)
	}

	r := bufio.NewReader(&buf)
	skipped := 0
	for {
		ok, res, err := codec.PeekMarker(r)
		if err != nil {
			log.Fatal(err)
		}
		if res == codec.ResultEOF {
			fmt.Println("no marker")
			return
		}
		if ok {
			break
		}
		_, _ = r.Discard(1)
		skipped++
	}
	_, _ = r.Discard(codec.MarkerSize)

	name, _, err := codec.ReadString(r)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Skipped %d bytes\n", skipped)
	fmt.Printf("Name: %s\n", name)

	// Output:
	// Skipped 3 bytes
	// Name: greeting
}

// ExampleReadString_truncated shows that a short stream is reported as EOF
func ExampleReadString_truncated() {
	truncated := []byte{0x05, 0x00, 0x00, 0x00, 'h', 'i'}

	_, res, err := codec.ReadString(bytes.NewReader(truncated))
	fmt.Printf("Result: %v, error: %v\n", res, err)

	// Output:
	// Result: eof, error: <nil>
}
