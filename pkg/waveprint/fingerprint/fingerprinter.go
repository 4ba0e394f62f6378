// Package fingerprint turns mono PCM audio into a sequence of 32-bit
// sub-fingerprints, one per hop.
//
// Each analysis frame is Hamming-windowed, transformed with an FFT, and
// folded into 33 log-spaced frequency bands. Every bit of a sub-fingerprint
// encodes the sign of the band-energy difference between two adjacent bands,
// differentiated against the previous frame. Consecutive frames of stationary
// audio therefore produce hashes that differ in only a few bits, which both
// the compact codec and the segment matcher rely on.
package fingerprint

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/waveprint/waveprint/pkg/models"
)

// Fingerprinter accumulates mono samples at the algorithm's analysis rate and
// produces the sub-fingerprint sequence on Finish. It is not safe for
// concurrent use; independent instances are.
type Fingerprinter struct {
	algorithm models.Algorithm
	cfg       Config
	edges     []int
	window    []float64
	samples   []float64

	// SilenceThreshold drops frames whose mean amplitude falls below
	// threshold/32768. Only honored by configurations with RemoveSilence.
	SilenceThreshold int
}

// New returns a Fingerprinter for the given algorithm.
func New(alg models.Algorithm) (*Fingerprinter, error) {
	cfg, err := ConfigFor(alg)
	if err != nil {
		return nil, err
	}
	return &Fingerprinter{
		algorithm: alg,
		cfg:       cfg,
		edges:     bandEdges(cfg),
		window:    hammingWindow(cfg.FrameSize),
	}, nil
}

// Config returns the fixed parameters of the fingerprinter's algorithm.
func (f *Fingerprinter) Config() Config { return f.cfg }

// Consume appends mono samples in the range [-1, 1], already at the
// configured sample rate.
func (f *Fingerprinter) Consume(samples []float64) {
	f.samples = append(f.samples, samples...)
}

// Reset discards all consumed audio so the instance can fingerprint a new
// stream.
func (f *Fingerprinter) Reset() {
	f.samples = f.samples[:0]
}

// Finish computes the fingerprint over everything consumed so far. Audio
// shorter than two frames yields an empty sequence.
func (f *Fingerprinter) Finish() models.Fingerprint {
	var hashes []uint32
	var prev [bandCount]float64
	havePrev := false

	frame := make([]float64, f.cfg.FrameSize)
	for start := 0; start+f.cfg.FrameSize <= len(f.samples); start += f.cfg.HopSize {
		chunk := f.samples[start : start+f.cfg.FrameSize]
		if f.cfg.RemoveSilence && f.SilenceThreshold > 0 && isSilent(chunk, f.SilenceThreshold) {
			continue
		}
		for i, s := range chunk {
			frame[i] = s * f.window[i]
		}
		spectrum := magnitudes(fft.FFTReal(frame))
		energies := bandEnergies(spectrum, f.edges)
		if havePrev {
			hashes = append(hashes, subFingerprint(energies, prev))
		}
		prev = energies
		havePrev = true
	}
	return models.Fingerprint{Algorithm: f.algorithm, Hashes: hashes}
}

// subFingerprint encodes, per bit, whether the energy difference between
// adjacent bands grew or shrank relative to the previous frame.
func subFingerprint(cur, prev [bandCount]float64) uint32 {
	var hash uint32
	for bit := 0; bit < 32; bit++ {
		if (cur[bit]-cur[bit+1])-(prev[bit]-prev[bit+1]) > 0 {
			hash |= 1 << bit
		}
	}
	return hash
}

func magnitudes(spectrum []complex128) []float64 {
	mags := make([]float64, len(spectrum)/2)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i])
	}
	return mags
}

// isSilent reports whether a frame's mean amplitude stays under the PCM-style
// threshold (0..32767 scale).
func isSilent(samples []float64, threshold int) bool {
	var sum float64
	for _, s := range samples {
		sum += math.Abs(s)
	}
	return sum/float64(len(samples)) < float64(threshold)/32768
}

func hammingWindow(size int) []float64 {
	w := make([]float64, size)
	for n := range w {
		w[n] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(size-1))
	}
	return w
}
