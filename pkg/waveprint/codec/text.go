package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when text input contains characters or has a
// length that is not valid for the fingerprint alphabet.
var ErrMalformedInput = errors.New("codec: malformed text input")

// textEncoding is the URL-safe alphabet used for the printable fingerprint
// form. No padding is emitted, so encoded fingerprints are safe to embed in
// URLs and JSON without escaping.
var textEncoding = base64.RawURLEncoding.Strict()

// EncodeText renders raw bytes in the printable fingerprint alphabet.
func EncodeText(data []byte) string {
	return textEncoding.EncodeToString(data)
}

// DecodeText reverses EncodeText bit-for-bit.
func DecodeText(s string) ([]byte, error) {
	data, err := textEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return data, nil
}
