// Package codec implements the compact binary fingerprint format and its
// printable text form.
//
// Binary layout:
//
//	byte 0      algorithm id
//	bytes 1-3   big-endian frame count
//	...         3-bit delta code stream, zero padded to a byte boundary
//	...         32-bit big-endian exception deltas, in emission order
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/waveprint/waveprint/pkg/models"
)

const (
	headerSize = 4
	maxFrames  = 1<<24 - 1
)

// ErrFingerprintTooLong is returned when a sequence exceeds the 24-bit frame
// count the header can carry.
var ErrFingerprintTooLong = errors.New("codec: fingerprint exceeds maximum encodable length")

// Compress encodes a fingerprint into the compact binary form. The result
// round-trips exactly through Decompress, including the empty sequence.
func Compress(fp models.Fingerprint) ([]byte, error) {
	if len(fp.Hashes) > maxFrames {
		return nil, fmt.Errorf("%w: %d frames", ErrFingerprintTooLong, len(fp.Hashes))
	}
	if fp.Algorithm < 0 || fp.Algorithm > 0xff {
		return nil, fmt.Errorf("codec: algorithm id %d does not fit the header byte", fp.Algorithm)
	}

	var w bitWriter
	var exceptions []uint32
	prev := uint32(0)
	for _, h := range fp.Hashes {
		delta := prev ^ h
		if code, ok := deltaToCode[delta]; ok {
			w.Write(code, codeWidth)
		} else {
			w.Write(escapeCode, codeWidth)
			exceptions = append(exceptions, delta)
		}
		prev = h
	}

	packed := w.Bytes()
	blob := make([]byte, headerSize, headerSize+len(packed)+4*len(exceptions))
	blob[0] = byte(fp.Algorithm)
	blob[1] = byte(len(fp.Hashes) >> 16)
	blob[2] = byte(len(fp.Hashes) >> 8)
	blob[3] = byte(len(fp.Hashes))
	blob = append(blob, packed...)
	for _, delta := range exceptions {
		blob = binary.BigEndian.AppendUint32(blob, delta)
	}
	return blob, nil
}

// CompressToText encodes a fingerprint into the printable alphabet.
func CompressToText(fp models.Fingerprint) (string, error) {
	blob, err := Compress(fp)
	if err != nil {
		return "", err
	}
	return EncodeText(blob), nil
}
