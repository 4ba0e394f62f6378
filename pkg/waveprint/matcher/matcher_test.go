package matcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/waveprint/waveprint/pkg/models"
)

func seq(seed uint32, n int) []uint32 {
	hashes := make([]uint32, n)
	state := seed
	for i := range hashes {
		state = state*1664525 + 1013904223
		hashes[i] = state
	}
	return hashes
}

func fp(alg models.Algorithm, hashes []uint32) models.Fingerprint {
	return models.Fingerprint{Algorithm: alg, Hashes: hashes}
}

func TestMatchAlgorithmMismatch(t *testing.T) {
	a := fp(models.AlgorithmTest1, seq(1, 50))
	b := fp(models.AlgorithmTest2, seq(1, 50))

	if _, err := Match(context.Background(), a, b); !errors.Is(err, ErrAlgorithmMismatch) {
		t.Errorf("Match error = %v, want ErrAlgorithmMismatch", err)
	}
}

func TestMatchEmptyInput(t *testing.T) {
	full := fp(models.AlgorithmTest2, seq(1, 50))
	empty := fp(models.AlgorithmTest2, nil)

	if _, err := Match(context.Background(), empty, full); !errors.Is(err, ErrEmptyFingerprint) {
		t.Errorf("Match(empty, full) error = %v, want ErrEmptyFingerprint", err)
	}
	if _, err := Match(context.Background(), full, empty); !errors.Is(err, ErrEmptyFingerprint) {
		t.Errorf("Match(full, empty) error = %v, want ErrEmptyFingerprint", err)
	}
}

func TestMatchIdentity(t *testing.T) {
	s := fp(models.AlgorithmTest2, seq(3, 100))

	segments, err := Match(context.Background(), s, s)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(segments) == 0 {
		t.Fatal("no segments for identical sequences")
	}

	seg := segments[0]
	if seg.PosA != 0 || seg.PosB != 0 || seg.Length != 100 {
		t.Errorf("segment = %+v, want full-length at 0/0", seg)
	}
	if seg.Score != 0 {
		t.Errorf("Score = %f, want 0", seg.Score)
	}
	if seg.Confidence() != 100 {
		t.Errorf("Confidence = %d, want 100", seg.Confidence())
	}
}

func TestMatchShiftedCopy(t *testing.T) {
	base := seq(5, 100)
	shifted := append(seq(99, 10), base...)

	a := fp(models.AlgorithmTest2, base)
	b := fp(models.AlgorithmTest2, shifted)

	segments, err := Match(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}

	seg := segments[0]
	if seg.PosA != 0 {
		t.Errorf("PosA = %d, want 0", seg.PosA)
	}
	if seg.PosB != 10 {
		t.Errorf("PosB = %d, want 10", seg.PosB)
	}
	if seg.Length != 100 {
		t.Errorf("Length = %d, want 100", seg.Length)
	}
	if seg.Confidence() < 95 {
		t.Errorf("Confidence = %d, want >= 95", seg.Confidence())
	}
}

func TestMatchWithDistortedFrame(t *testing.T) {
	base := seq(13, 100)
	distorted := make([]uint32, len(base))
	copy(distorted, base)
	distorted[50] ^= 0xFFFFFFFF

	segments, err := Match(context.Background(), fp(models.AlgorithmTest2, base), fp(models.AlgorithmTest2, distorted))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1 spanning the distortion", len(segments))
	}

	seg := segments[0]
	if seg.Length != 100 {
		t.Errorf("Length = %d, want 100", seg.Length)
	}
	if seg.Score <= 0 || seg.Score > 1 {
		t.Errorf("Score = %f, want small but positive", seg.Score)
	}
	if seg.Confidence() < 95 {
		t.Errorf("Confidence = %d, want >= 95", seg.Confidence())
	}
}

func TestMatchNoOverlap(t *testing.T) {
	a := fp(models.AlgorithmTest2, seq(21, 50))
	b := fp(models.AlgorithmTest2, seq(22, 50))

	segments, err := Match(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments for unrelated sequences, want 0", len(segments))
	}
}

func TestMatchScoreBounds(t *testing.T) {
	base := seq(31, 200)
	noisy := make([]uint32, len(base))
	copy(noisy, base)
	for i := 0; i < len(noisy); i += 7 {
		noisy[i] ^= 0x3 // two-bit wobble, still within the frame tolerance
	}

	segments, err := Match(context.Background(), fp(models.AlgorithmTest2, base), fp(models.AlgorithmTest2, noisy))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	for _, seg := range segments {
		if seg.Score < 0 || seg.Score > 32 {
			t.Errorf("Score = %f, want within [0, 32]", seg.Score)
		}
		if c := seg.Confidence(); c < 0 || c > 100 {
			t.Errorf("Confidence = %d, want within [0, 100]", c)
		}
	}
}

func TestMatchNoDoubleClaim(t *testing.T) {
	// B repeats A's content twice, so two offsets both align the whole of A.
	// Only one of them may claim A's frames.
	base := seq(41, 60)
	repeated := append(append([]uint32{}, base...), base...)

	segments, err := Match(context.Background(), fp(models.AlgorithmTest2, base), fp(models.AlgorithmTest2, repeated))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			a, b := segments[i], segments[j]
			if a.PosA < b.PosA+b.Length && b.PosA < a.PosA+a.Length {
				t.Errorf("segments %d and %d overlap in sequence A", i, j)
			}
		}
	}
	if len(segments) == 0 {
		t.Fatal("expected at least one segment")
	}
}

func TestMatchOrderedByPosA(t *testing.T) {
	// A carries two separated copies of material found in B.
	chunk1 := seq(51, 40)
	chunk2 := seq(52, 40)
	gap := seq(53, 30)

	a := append(append(append([]uint32{}, chunk1...), gap...), chunk2...)
	b := append(append([]uint32{}, chunk2...), chunk1...)

	segments, err := Match(context.Background(), fp(models.AlgorithmTest2, a), fp(models.AlgorithmTest2, b))
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(segments) < 2 {
		t.Fatalf("got %d segments, want at least 2", len(segments))
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].PosA < segments[i-1].PosA {
			t.Errorf("segments not ordered by PosA: %d before %d", segments[i-1].PosA, segments[i].PosA)
		}
	}
}

func TestMatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := fp(models.AlgorithmTest2, seq(61, 500))
	b := fp(models.AlgorithmTest2, seq(62, 500))
	if _, err := Match(ctx, a, b); !errors.Is(err, context.Canceled) {
		t.Errorf("Match error = %v, want context.Canceled", err)
	}
}

func TestSegmentTimeConversion(t *testing.T) {
	hop := 123 * time.Millisecond
	seg := Segment{PosA: 10, PosB: 4, Length: 20}

	if got := seg.TimeA(hop); got != 10*hop {
		t.Errorf("TimeA = %v, want %v", got, 10*hop)
	}
	if got := seg.TimeB(hop); got != 4*hop {
		t.Errorf("TimeB = %v, want %v", got, 4*hop)
	}
	if got := seg.Duration(hop); got != 20*hop {
		t.Errorf("Duration = %v, want %v", got, 20*hop)
	}
}

func TestSegmentConfidenceClamp(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{0, 100},
		{32, 0},
		{16, 50},
		{40, 0}, // out-of-range scores clamp rather than go negative
	}
	for _, tc := range cases {
		seg := Segment{Score: tc.score}
		if got := seg.Confidence(); got != tc.want {
			t.Errorf("Confidence(score=%f) = %d, want %d", tc.score, got, tc.want)
		}
	}
}
