package models

import "math/bits"

// Algorithm identifies the feature-extraction configuration that produced a
// fingerprint. Fingerprints from different algorithms are never comparable.
type Algorithm int

const (
	AlgorithmTest1 Algorithm = iota
	AlgorithmTest2
	AlgorithmTest3
	AlgorithmTest4

	AlgorithmDefault = AlgorithmTest2
)

// Fingerprint is an ordered sequence of 32-bit sub-fingerprints, one per hop,
// tagged with the algorithm that produced it.
type Fingerprint struct {
	Algorithm Algorithm
	Hashes    []uint32
}

// Empty reports whether the fingerprint has no hashes.
func (f Fingerprint) Empty() bool { return len(f.Hashes) == 0 }

// Clone returns a deep copy so callers can hold the sequence without aliasing
// the original backing array.
func (f Fingerprint) Clone() Fingerprint {
	hashes := make([]uint32, len(f.Hashes))
	copy(hashes, f.Hashes)
	return Fingerprint{Algorithm: f.Algorithm, Hashes: hashes}
}

// HammingDistance counts the differing bits between two 32-bit hashes.
func HammingDistance(a, b uint32) int {
	return bits.OnesCount32(a ^ b)
}

// Recording represents a catalogued recording entry.
type Recording struct {
	ID          string // Database ID (UUID)
	Title       string
	Source      string // Original file path or external reference
	DurationMs  int
	Algorithm   Algorithm
	SimHash     uint32 // Majority-vote signature of the fingerprint
	Fingerprint []byte // Compressed fingerprint blob
}

// MatchResult represents one catalogued recording judged to overlap a query.
type MatchResult struct {
	RecordingID   string // Database ID of the matched recording (UUID)
	Title         string
	SimHashDist   int // Hamming distance between the simhash signatures
	Confidence    int // Best segment confidence as a percentage (0-100)
	MatchedFrames int // Total frames covered by matched segments
	BestOffsetMs  int // Offset of the best segment into the query, milliseconds
	SegmentCount  int
}
