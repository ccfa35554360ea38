package render

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
)

// plantumlEncoding is base64 over PlantUML's own alphabet.
var plantumlEncoding = base64.NewEncoding(
	"0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_",
).WithPadding(base64.NoPadding)

// Encode produces the text encoding the PlantUML server expects in URLs:
// raw deflate, zero-padded to whole 3-byte groups, then base64 with the
// PlantUML alphabet.
func Encode(source string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if _, err := w.Write([]byte(source)); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}

	data := buf.Bytes()
	if rem := len(data) % 3; rem != 0 {
		data = append(data, make([]byte, 3-rem)...)
	}
	return plantumlEncoding.EncodeToString(data), nil
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	data, err := plantumlEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	var out bytes.Buffer
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	// Trailing zero padding is not part of the deflate stream; the reader
	// stops at the final block.
	if _, err := out.ReadFrom(r); err != nil {
		return "", fmt.Errorf("inflate: %w", err)
	}
	return out.String(), nil
}
