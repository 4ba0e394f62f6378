package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/waveprint/waveprint/pkg/models"
)

// ErrCorruptFingerprint is returned when a binary blob is structurally
// inconsistent. Decompression is all-or-nothing; no partial sequence is ever
// returned alongside this error.
var ErrCorruptFingerprint = errors.New("codec: corrupt fingerprint data")

// Decompress reverses Compress, recovering the full sequence and its
// algorithm id.
func Decompress(blob []byte) (models.Fingerprint, error) {
	if len(blob) < headerSize {
		return models.Fingerprint{}, fmt.Errorf("%w: %d bytes is too short for the header", ErrCorruptFingerprint, len(blob))
	}
	algorithm := models.Algorithm(blob[0])
	frames := int(blob[1])<<16 | int(blob[2])<<8 | int(blob[3])

	packedLen := (frames*codeWidth + 7) / 8
	body := blob[headerSize:]
	if len(body) < packedLen {
		return models.Fingerprint{}, fmt.Errorf("%w: packed stream truncated (%d of %d bytes)", ErrCorruptFingerprint, len(body), packedLen)
	}

	r := bitReader{buf: body[:packedLen]}
	codes := make([]uint32, frames)
	escapes := 0
	for i := range codes {
		code, ok := r.Read(codeWidth)
		if !ok {
			return models.Fingerprint{}, fmt.Errorf("%w: packed stream exhausted at frame %d", ErrCorruptFingerprint, i)
		}
		codes[i] = code
		if code == escapeCode {
			escapes++
		}
	}

	excBytes := body[packedLen:]
	if len(excBytes) != 4*escapes {
		return models.Fingerprint{}, fmt.Errorf("%w: %d escape codes but %d exception bytes", ErrCorruptFingerprint, escapes, len(excBytes))
	}

	hashes := make([]uint32, frames)
	prev := uint32(0)
	exc := 0
	for i, code := range codes {
		var delta uint32
		if code == escapeCode {
			delta = binary.BigEndian.Uint32(excBytes[4*exc:])
			exc++
		} else {
			delta = codeToDelta[code]
		}
		prev ^= delta
		hashes[i] = prev
	}
	return models.Fingerprint{Algorithm: algorithm, Hashes: hashes}, nil
}

// DecompressText decodes the printable form produced by CompressToText.
func DecompressText(s string) (models.Fingerprint, error) {
	blob, err := DecodeText(s)
	if err != nil {
		return models.Fingerprint{}, err
	}
	return Decompress(blob)
}
