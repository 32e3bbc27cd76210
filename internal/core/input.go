package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is prepended by many Windows spreadsheet exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrInputTooLarge is wrapped by ReadInput when the reader holds more than maxBytes.
var ErrInputTooLarge = errors.New("file too large")

// ReadInput reads an uploaded file into memory for the pipeline.
//
// At most maxBytes are accepted; a larger input returns ErrInputTooLarge
// without reading the remainder. A leading UTF-8 BOM is dropped and invalid
// UTF-8 sequences are replaced with U+FFFD so cells stay printable.
func ReadInput(r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: exceeds limit of %d bytes", ErrInputTooLarge, maxBytes)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
