// Package textutil sniffs raw file content before it is handed to a parser.
package textutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

var shebangPrefix = []byte("#!")

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// HasShebang reports whether data starts with "#!".
func HasShebang(data []byte) bool {
	return bytes.HasPrefix(data, shebangPrefix)
}

// Head returns up to n leading bytes of the file at path. A file shorter
// than n is returned whole.
func Head(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, n)

	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return buf[:read], nil
}
