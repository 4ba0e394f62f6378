package waveprint

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
)

// melodyPCM synthesizes interleaved 16-bit PCM of a short note sequence.
func melodyPCM(rate, channels int, seconds float64) []int16 {
	freqs := []float64{440, 554.37, 659.26, 880, 659.26, 554.37}
	frames := int(float64(rate) * seconds)
	noteLen := frames / len(freqs)
	pcm := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		note := i / noteLen
		if note >= len(freqs) {
			note = len(freqs) - 1
		}
		v := int16(16000 * math.Sin(2*math.Pi*freqs[note]*float64(i)/float64(rate)))
		for ch := 0; ch < channels; ch++ {
			pcm[i*channels+ch] = v
		}
	}
	return pcm
}

func TestSessionLifecycleErrors(t *testing.T) {
	s, err := NewSession(models.AlgorithmDefault)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	if err := s.Feed([]int16{1, 2, 3}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Feed before Start = %v, want ErrNotStarted", err)
	}
	if err := s.Finish(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Finish before Start = %v, want ErrNotStarted", err)
	}
	if _, err := s.Fingerprint(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("Fingerprint before Finish = %v, want ErrNotFinished", err)
	}
	if _, err := s.RawFingerprint(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("RawFingerprint before Finish = %v, want ErrNotFinished", err)
	}
	if _, err := s.Hash(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("Hash before Finish = %v, want ErrNotFinished", err)
	}

	if err := s.Start(0, 2); err == nil {
		t.Error("Start with zero sample rate succeeded")
	}
	if err := s.Start(44100, 0); err == nil {
		t.Error("Start with zero channels succeeded")
	}
}

func TestSessionOptions(t *testing.T) {
	s, _ := NewSession(models.AlgorithmTest4)

	if err := s.SetOption("silence_threshold", 1000); err != nil {
		t.Errorf("SetOption(silence_threshold) failed: %v", err)
	}
	if err := s.SetOption("silence_threshold", -1); err == nil {
		t.Error("negative silence_threshold accepted")
	}
	if err := s.SetOption("silence_threshold", 40000); err == nil {
		t.Error("out-of-range silence_threshold accepted")
	}
	if err := s.SetOption("reverb", 1); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("SetOption(reverb) = %v, want ErrUnknownOption", err)
	}
}

func TestSessionFullFlow(t *testing.T) {
	s, err := NewSession(models.AlgorithmDefault)
	if err != nil {
		t.Fatal(err)
	}
	if s.Algorithm() != models.AlgorithmDefault {
		t.Errorf("Algorithm = %d, want %d", s.Algorithm(), models.AlgorithmDefault)
	}
	if s.ItemDuration() <= 0 {
		t.Errorf("ItemDuration = %v, want positive", s.ItemDuration())
	}

	const rate, channels = 44100, 2
	pcm := melodyPCM(rate, channels, 4)

	if err := s.Start(rate, channels); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Feed in chunks to exercise incremental consumption.
	for i := 0; i < len(pcm); i += 8192 {
		end := i + 8192
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := s.Feed(pcm[i:end]); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
	}
	if err := s.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if err := s.Feed(pcm[:16]); !errors.Is(err, ErrAlreadyFinished) {
		t.Errorf("Feed after Finish = %v, want ErrAlreadyFinished", err)
	}

	raw, err := s.RawFingerprint()
	if err != nil {
		t.Fatalf("RawFingerprint failed: %v", err)
	}
	if len(raw.Hashes) == 0 {
		t.Fatal("empty fingerprint from 4s of audio")
	}
	if raw.Algorithm != models.AlgorithmDefault {
		t.Errorf("Algorithm = %d, want %d", raw.Algorithm, models.AlgorithmDefault)
	}

	encoded, err := s.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}
	if encoded == "" {
		t.Error("empty encoded fingerprint")
	}
	if _, err := s.Hash(); err != nil {
		t.Errorf("Hash failed: %v", err)
	}

	// Mutating the returned copy must not affect later reads.
	raw.Hashes[0] ^= 0xFFFFFFFF
	again, _ := s.RawFingerprint()
	if again.Hashes[0] == raw.Hashes[0] {
		t.Error("RawFingerprint returned a slice aliasing internal state")
	}
}

func TestSessionRestart(t *testing.T) {
	s, _ := NewSession(models.AlgorithmDefault)
	pcm := melodyPCM(11025, 1, 3)

	run := func() []uint32 {
		if err := s.Start(11025, 1); err != nil {
			t.Fatal(err)
		}
		if err := s.Feed(pcm); err != nil {
			t.Fatal(err)
		}
		if err := s.Finish(); err != nil {
			t.Fatal(err)
		}
		fp, err := s.RawFingerprint()
		if err != nil {
			t.Fatal(err)
		}
		return fp.Hashes
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("restart changed hash count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("restart changed hash %d", i)
		}
	}
}

func TestSessionChunkSizeInvariance(t *testing.T) {
	// 48000/11025 is a non-integer ratio, so per-chunk resampling would shift
	// interpolation phase and drop fractional samples at every chunk boundary.
	const rate = 48000
	pcm := melodyPCM(rate, 1, 6)

	run := func(chunk int) []uint32 {
		s, err := NewSession(models.AlgorithmDefault)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Start(rate, 1); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(pcm); i += chunk {
			end := i + chunk
			if end > len(pcm) {
				end = len(pcm)
			}
			if err := s.Feed(pcm[i:end]); err != nil {
				t.Fatal(err)
			}
		}
		if err := s.Finish(); err != nil {
			t.Fatal(err)
		}
		fp, err := s.RawFingerprint()
		if err != nil {
			t.Fatal(err)
		}
		return fp.Hashes
	}

	whole := run(len(pcm))
	for _, chunk := range []int{1000, 4096, 7777} {
		chunked := run(chunk)
		if len(chunked) != len(whole) {
			t.Fatalf("chunk size %d changed hash count: %d vs %d", chunk, len(chunked), len(whole))
		}
		for i := range whole {
			if chunked[i] != whole[i] {
				t.Fatalf("chunk size %d changed hash %d: %#x vs %#x", chunk, i, chunked[i], whole[i])
			}
		}
	}
}

func TestMatcherSessionSlots(t *testing.T) {
	m, err := NewMatcherSession(models.AlgorithmDefault)
	if err != nil {
		t.Fatal(err)
	}

	if err := m.SetRawFingerprint(2, []uint32{1}); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("SetRawFingerprint(2) = %v, want ErrInvalidSlot", err)
	}
	if err := m.SetFingerprint(-1, "x"); !errors.Is(err, ErrInvalidSlot) {
		t.Errorf("SetFingerprint(-1) = %v, want ErrInvalidSlot", err)
	}
	if _, err := m.NumSegments(); !errors.Is(err, ErrNotFinished) {
		t.Errorf("NumSegments before Run = %v, want ErrNotFinished", err)
	}
}

func TestMatcherSessionAlgorithmMismatch(t *testing.T) {
	// Encode a fingerprint under one algorithm and feed it to a session bound
	// to another.
	s, _ := NewSession(models.AlgorithmTest1)
	if err := s.Start(11025, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.Feed(melodyPCM(11025, 1, 2)); err != nil {
		t.Fatal(err)
	}
	if err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	encoded, err := s.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}

	m, _ := NewMatcherSession(models.AlgorithmTest2)
	if err := m.SetFingerprint(0, encoded); !errors.Is(err, matcher.ErrAlgorithmMismatch) {
		t.Errorf("SetFingerprint = %v, want ErrAlgorithmMismatch", err)
	}
}

func TestMatcherSessionRun(t *testing.T) {
	hashes := make([]uint32, 50)
	state := uint32(7)
	for i := range hashes {
		state = state*1664525 + 1013904223
		hashes[i] = state
	}

	m, err := NewMatcherSession(models.AlgorithmDefault)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetRawFingerprint(0, hashes); err != nil {
		t.Fatal(err)
	}
	if err := m.SetRawFingerprint(1, hashes); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	n, err := m.NumSegments()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("NumSegments = %d, want 1 for identical inputs", n)
	}

	seg, err := m.Segment(0)
	if err != nil {
		t.Fatal(err)
	}
	if seg.PosA != 0 || seg.PosB != 0 || seg.Length != 50 {
		t.Errorf("segment = %+v, want full-length match at origin", seg)
	}

	score, err := m.SegmentScore(0)
	if err != nil {
		t.Fatal(err)
	}
	if score != 100 {
		t.Errorf("SegmentScore = %d, want 100", score)
	}

	posA, posB, duration, err := m.SegmentPositionMs(0)
	if err != nil {
		t.Fatal(err)
	}
	if posA != 0 || posB != 0 {
		t.Errorf("positions = %d, %d ms, want 0, 0", posA, posB)
	}
	if duration <= 0 {
		t.Errorf("duration = %d ms, want positive", duration)
	}

	if _, err := m.Segment(1); !errors.Is(err, ErrInvalidSegmentIndex) {
		t.Errorf("Segment(1) = %v, want ErrInvalidSegmentIndex", err)
	}
}
