package fingerprint

import (
	"errors"
	"fmt"
	"time"

	"github.com/waveprint/waveprint/pkg/models"
)

// ErrUnknownAlgorithm is returned for algorithm ids with no registered
// configuration.
var ErrUnknownAlgorithm = errors.New("fingerprint: unknown algorithm")

// Config fixes the analysis parameters of one fingerprinting algorithm.
// Fingerprints are only comparable when produced under the same Config, which
// is why every sequence carries its algorithm id.
type Config struct {
	SampleRate    int     // Analysis rate; input is resampled to this
	FrameSize     int     // FFT window length in samples
	HopSize       int     // Samples between consecutive frames
	MinFreq       float64 // Lower edge of the analyzed band range, Hz
	MaxFreq       float64 // Upper edge of the analyzed band range, Hz
	RemoveSilence bool    // Whether the silence_threshold option applies
}

// configs maps algorithm ids to their fixed parameters. The band ranges
// follow the usual log-spaced perceptual layouts; TEST4 shares TEST2's bands
// but supports silence removal.
var configs = map[models.Algorithm]Config{
	models.AlgorithmTest1: {SampleRate: 11025, FrameSize: 4096, HopSize: 1365, MinFreq: 300, MaxFreq: 2000},
	models.AlgorithmTest2: {SampleRate: 11025, FrameSize: 4096, HopSize: 1365, MinFreq: 300, MaxFreq: 3000},
	models.AlgorithmTest3: {SampleRate: 11025, FrameSize: 4096, HopSize: 1365, MinFreq: 300, MaxFreq: 3520},
	models.AlgorithmTest4: {SampleRate: 11025, FrameSize: 4096, HopSize: 1365, MinFreq: 300, MaxFreq: 3000, RemoveSilence: true},
}

// ConfigFor returns the configuration for an algorithm id.
func ConfigFor(alg models.Algorithm) (Config, error) {
	cfg, ok := configs[alg]
	if !ok {
		return Config{}, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
	}
	return cfg, nil
}

// HopDuration is the time step between consecutive sub-fingerprints. Callers
// use it to convert frame indices reported by the matcher into elapsed time.
func (c Config) HopDuration() time.Duration {
	return time.Duration(c.HopSize) * time.Second / time.Duration(c.SampleRate)
}
