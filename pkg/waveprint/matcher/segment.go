package matcher

import (
	"math"
	"time"
)

// maxScore is the worst possible per-frame Hamming distance for 32-bit hashes.
const maxScore = 32.0

// Segment is a contiguous run of frames judged to represent the same audio in
// both sequences at a consistent relative offset. Segments are immutable once
// returned by Match.
type Segment struct {
	PosA   int     // First frame of the run in sequence A
	PosB   int     // First frame of the run in sequence B
	Length int     // Run length in frames
	Score  float64 // Mean per-frame Hamming distance over the run, 0..32
}

// Confidence converts the raw score to a similarity percentage.
func (s Segment) Confidence() int {
	c := int(math.Round(100 * (1 - s.Score/maxScore)))
	if c < 0 {
		c = 0
	} else if c > 100 {
		c = 100
	}
	return c
}

// TimeA returns the segment start in sequence A as elapsed time, given the
// hop duration of the algorithm the sequences were produced under.
func (s Segment) TimeA(hop time.Duration) time.Duration {
	return time.Duration(s.PosA) * hop
}

// TimeB returns the segment start in sequence B as elapsed time.
func (s Segment) TimeB(hop time.Duration) time.Duration {
	return time.Duration(s.PosB) * hop
}

// Duration returns the segment length as elapsed time.
func (s Segment) Duration(hop time.Duration) time.Duration {
	return time.Duration(s.Length) * hop
}
