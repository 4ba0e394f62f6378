// Package audio reads PCM audio for fingerprinting: WAV decoding, channel
// downmix, and resampling to the analysis rate.
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when a file is not a decodable WAV.
var ErrInvalidWAV = errors.New("audio: not a valid WAV file")

// Clip is decoded mono audio with samples normalized to [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
}

// DurationMs is the clip length in milliseconds.
func (c Clip) DurationMs() int {
	if c.SampleRate == 0 {
		return 0
	}
	return len(c.Samples) * 1000 / c.SampleRate
}

// ReadFile decodes a WAV file into a mono clip at its native sample rate.
func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return Clip{}, fmt.Errorf("%w: %s has no channels", ErrInvalidWAV, path)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}

	return Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}
