// Package matcher finds time-aligned matching stretches between two
// fingerprints of the same algorithm.
//
// Matching runs in two phases. The offset search scans every candidate
// relative alignment of the two sequences and counts the frames that agree
// within a small bit tolerance; alignments with too little support are noise
// and dropped. Surviving offsets are then scanned in order to extract
// contiguous matching segments, and segments from different offsets that claim
// the same stretch of sequence A are reconciled by keeping the better fit.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/waveprint/waveprint/pkg/models"
)

var (
	// ErrAlgorithmMismatch is returned when the two fingerprints were
	// produced by different algorithms.
	ErrAlgorithmMismatch = errors.New("matcher: fingerprint algorithms do not match")

	// ErrEmptyFingerprint is returned when either input has no hashes.
	ErrEmptyFingerprint = errors.New("matcher: empty fingerprint")
)

// Tuning defaults, calibrated against self-matches and shifted copies of real
// fingerprint sequences.
const (
	defaultMaxBitDiff = 2 // frames agree when at most this many bits differ
	defaultMinSupport = 5 // offsets with fewer agreeing frames are noise
	defaultMaxGap     = 3 // a segment survives gaps shorter than this
	defaultMinLength  = 5 // segments shorter than this are discarded
)

// Matcher holds the tunable thresholds of the alignment search. The zero
// value is not usable; construct with New.
type Matcher struct {
	MaxBitDiff int // Per-frame Hamming tolerance for a "matching" frame
	MinSupport int // Minimum agreeing frames for an offset to survive
	MaxGap     int // Longest non-matching run allowed inside a segment
	MinLength  int // Minimum segment length in frames
	Workers    int // Goroutines used for the offset search
}

// New returns a Matcher with the default thresholds.
func New() *Matcher {
	return &Matcher{
		MaxBitDiff: defaultMaxBitDiff,
		MinSupport: defaultMinSupport,
		MaxGap:     defaultMaxGap,
		MinLength:  defaultMinLength,
		Workers:    runtime.NumCPU(),
	}
}

// Match runs the alignment search with default thresholds.
func Match(ctx context.Context, a, b models.Fingerprint) ([]Segment, error) {
	return New().Match(ctx, a, b)
}

// Match finds the matching segments between a and b, ordered by their start
// in a. A pair with no matching region returns an empty list, not an error.
func (m *Matcher) Match(ctx context.Context, a, b models.Fingerprint) ([]Segment, error) {
	if a.Empty() || b.Empty() {
		return nil, ErrEmptyFingerprint
	}
	if a.Algorithm != b.Algorithm {
		return nil, fmt.Errorf("%w: %d vs %d", ErrAlgorithmMismatch, a.Algorithm, b.Algorithm)
	}

	offsets, err := m.searchOffsets(ctx, a.Hashes, b.Hashes)
	if err != nil {
		return nil, err
	}

	var candidates []Segment
	for _, off := range offsets {
		candidates = append(candidates, m.extractSegments(a.Hashes, b.Hashes, off)...)
	}
	return reconcile(candidates), nil
}

// candidateOffset is one surviving alignment from the offset search.
type candidateOffset struct {
	offset int // index in A minus index in B for aligned frames
	votes  int
}

// searchOffsets counts agreeing frames for every candidate offset in
// [-(len(b)-1), len(a)-1] and returns the offsets with enough support, best
// first. The per-offset counts are independent, so the range is split across
// workers and the partial results merged by concatenation.
func (m *Matcher) searchOffsets(ctx context.Context, a, b []uint32) ([]candidateOffset, error) {
	lo := -(len(b) - 1)
	hi := len(a) - 1
	total := hi - lo + 1

	workers := m.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	results := make([][]candidateOffset, workers)
	var wg sync.WaitGroup
	chunk := (total + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := lo + w*chunk
		end := start + chunk
		if end > hi+1 {
			end = hi + 1
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			var found []candidateOffset
			for off := start; off < end; off++ {
				if ctx.Err() != nil {
					return
				}
				votes := countVotes(a, b, off, m.MaxBitDiff)
				if votes >= m.MinSupport {
					found = append(found, candidateOffset{offset: off, votes: votes})
				}
			}
			results[w] = found
		}(w, start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []candidateOffset
	for _, part := range results {
		merged = append(merged, part...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].votes != merged[j].votes {
			return merged[i].votes > merged[j].votes
		}
		return merged[i].offset < merged[j].offset
	})
	return merged, nil
}

// countVotes counts the index pairs (i, i-offset) valid in both sequences
// whose hashes differ by at most maxBitDiff bits.
func countVotes(a, b []uint32, offset, maxBitDiff int) int {
	start, end := overlap(len(a), len(b), offset)
	votes := 0
	for i := start; i < end; i++ {
		if models.HammingDistance(a[i], b[i-offset]) <= maxBitDiff {
			votes++
		}
	}
	return votes
}

// overlap returns the half-open range of sequence-A indices valid in both
// sequences at the given offset.
func overlap(lenA, lenB, offset int) (int, int) {
	start := 0
	if offset > 0 {
		start = offset
	}
	end := lenA
	if lenB+offset < end {
		end = lenB + offset
	}
	return start, end
}

// extractSegments scans the overlapping range at one offset and groups
// matching frames into segments, tolerating short gaps. The score of a
// segment is the mean Hamming distance over its full span, gap frames
// included.
func (m *Matcher) extractSegments(a, b []uint32, off candidateOffset) []Segment {
	start, end := overlap(len(a), len(b), off.offset)

	var segments []Segment
	segStart := -1  // A-index of the first matching frame in the open segment
	lastMatch := -1 // A-index of the most recent matching frame
	var distSum int // Hamming sum over [segStart, lastMatch]
	var tailSum int // Hamming sum over the gap after lastMatch

	closeSegment := func() {
		length := lastMatch - segStart + 1
		if length >= m.MinLength {
			segments = append(segments, Segment{
				PosA:   segStart,
				PosB:   segStart - off.offset,
				Length: length,
				Score:  float64(distSum) / float64(length),
			})
		}
		segStart, lastMatch, distSum, tailSum = -1, -1, 0, 0
	}

	for i := start; i < end; i++ {
		d := models.HammingDistance(a[i], b[i-off.offset])
		if d <= m.MaxBitDiff {
			if segStart < 0 {
				segStart = i
			}
			distSum += tailSum + d
			tailSum = 0
			lastMatch = i
			continue
		}
		if segStart < 0 {
			continue
		}
		tailSum += d
		if i-lastMatch >= m.MaxGap {
			closeSegment()
		}
	}
	if segStart >= 0 {
		closeSegment()
	}
	return segments
}

// reconcile resolves overlaps between segments found at different offsets:
// for any contested range of sequence A the segment with the lower score
// wins. The result is ordered by start position in A.
func reconcile(candidates []Segment) []Segment {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		if candidates[i].Length != candidates[j].Length {
			return candidates[i].Length > candidates[j].Length
		}
		return candidates[i].PosA < candidates[j].PosA
	})

	accepted := make([]Segment, 0, len(candidates))
	for _, c := range candidates {
		contested := false
		for _, s := range accepted {
			if c.PosA < s.PosA+s.Length && s.PosA < c.PosA+c.Length {
				contested = true
				break
			}
		}
		if !contested {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].PosA < accepted[j].PosA })
	return accepted
}
