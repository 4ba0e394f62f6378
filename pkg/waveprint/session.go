package waveprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/audio"
	"github.com/waveprint/waveprint/pkg/waveprint/codec"
	"github.com/waveprint/waveprint/pkg/waveprint/fingerprint"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
	"github.com/waveprint/waveprint/pkg/waveprint/simhash"
)

var (
	// ErrNotStarted is returned when audio is fed before Start.
	ErrNotStarted = errors.New("waveprint: session not started")

	// ErrNotFinished is returned when results are requested before Finish
	// (or, on a matcher session, before Run).
	ErrNotFinished = errors.New("waveprint: session not finished")

	// ErrAlreadyFinished is returned when audio is fed after Finish.
	ErrAlreadyFinished = errors.New("waveprint: session already finished")

	// ErrUnknownOption is returned by SetOption for unsupported names.
	ErrUnknownOption = errors.New("waveprint: unknown option")

	// ErrInvalidSlot is returned when a matcher fingerprint index is not 0
	// or 1.
	ErrInvalidSlot = errors.New("waveprint: fingerprint slot must be 0 or 1")

	// ErrInvalidSegmentIndex is returned for out-of-range segment queries.
	ErrInvalidSegmentIndex = errors.New("waveprint: segment index out of range")
)

// Session is a fingerprinting lifecycle handle: create, Start with the input
// format, Feed PCM, Finish, then read the results. Starting again resets the
// session for a new stream.
type Session struct {
	algorithm  models.Algorithm
	fpr        *fingerprint.Fingerprinter
	sampleRate int
	channels   int
	started    bool
	finished   bool
	mono       []float64 // accumulated samples at the input rate
	fp         models.Fingerprint
}

// NewSession creates a session for the given algorithm.
func NewSession(alg models.Algorithm) (*Session, error) {
	fpr, err := fingerprint.New(alg)
	if err != nil {
		return nil, err
	}
	return &Session{algorithm: alg, fpr: fpr}, nil
}

// Algorithm returns the session's algorithm id.
func (s *Session) Algorithm() models.Algorithm { return s.algorithm }

// ItemDuration is the time covered by one sub-fingerprint.
func (s *Session) ItemDuration() time.Duration { return s.fpr.Config().HopDuration() }

// SetOption adjusts an algorithm option. The only supported option is
// "silence_threshold" (0..32767), honored by algorithms with silence removal.
func (s *Session) SetOption(name string, value int) error {
	switch name {
	case "silence_threshold":
		if value < 0 || value > 32767 {
			return fmt.Errorf("waveprint: silence_threshold %d out of range", value)
		}
		s.fpr.SilenceThreshold = value
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOption, name)
	}
}

// Start begins a new stream with the given input format. Any previously fed
// audio is discarded.
func (s *Session) Start(sampleRate, channels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("waveprint: invalid sample rate %d", sampleRate)
	}
	if channels < 1 {
		return fmt.Errorf("waveprint: invalid channel count %d", channels)
	}
	s.sampleRate = sampleRate
	s.channels = channels
	s.started = true
	s.finished = false
	s.mono = s.mono[:0]
	s.fp = models.Fingerprint{}
	s.fpr.Reset()
	return nil
}

// Feed consumes interleaved 16-bit PCM in the format given to Start. Audio is
// buffered at the input rate and resampled as one stream in Finish, so the
// fingerprint does not depend on how callers chunk their feeds.
func (s *Session) Feed(pcm []int16) error {
	if !s.started {
		return ErrNotStarted
	}
	if s.finished {
		return ErrAlreadyFinished
	}
	s.mono = append(s.mono, audio.DownmixInterleaved(pcm, s.channels)...)
	return nil
}

// Finish processes the buffered audio and freezes the fingerprint.
func (s *Session) Finish() error {
	if !s.started {
		return ErrNotStarted
	}
	s.fpr.Consume(audio.Resample(s.mono, s.sampleRate, s.fpr.Config().SampleRate))
	s.fp = s.fpr.Finish()
	s.finished = true
	return nil
}

// RawFingerprint returns a copy of the computed sub-fingerprint sequence.
func (s *Session) RawFingerprint() (models.Fingerprint, error) {
	if !s.finished {
		return models.Fingerprint{}, ErrNotFinished
	}
	return s.fp.Clone(), nil
}

// Fingerprint returns the compressed printable form of the fingerprint.
func (s *Session) Fingerprint() (string, error) {
	if !s.finished {
		return "", ErrNotFinished
	}
	return codec.CompressToText(s.fp)
}

// Hash returns the simhash signature of the fingerprint.
func (s *Session) Hash() (uint32, error) {
	if !s.finished {
		return 0, ErrNotFinished
	}
	return simhash.Hash(s.fp), nil
}

// MatcherSession holds two fingerprint slots and the segments produced by
// running the matcher over them. It owns immutable copies of both inputs for
// its lifetime.
type MatcherSession struct {
	algorithm models.Algorithm
	hop       time.Duration
	match     *matcher.Matcher
	fps       [2]models.Fingerprint
	segments  []matcher.Segment
	done      bool
}

// NewMatcherSession creates a matcher session bound to one algorithm; both
// fingerprint slots must carry it.
func NewMatcherSession(alg models.Algorithm) (*MatcherSession, error) {
	cfg, err := fingerprint.ConfigFor(alg)
	if err != nil {
		return nil, err
	}
	return &MatcherSession{
		algorithm: alg,
		hop:       cfg.HopDuration(),
		match:     matcher.New(),
	}, nil
}

// SetFingerprint decodes a printable fingerprint into a slot.
func (m *MatcherSession) SetFingerprint(idx int, encoded string) error {
	if idx < 0 || idx > 1 {
		return ErrInvalidSlot
	}
	fp, err := codec.DecompressText(encoded)
	if err != nil {
		return err
	}
	if fp.Algorithm != m.algorithm {
		return fmt.Errorf("%w: %d vs %d", matcher.ErrAlgorithmMismatch, fp.Algorithm, m.algorithm)
	}
	m.fps[idx] = fp
	m.done = false
	return nil
}

// SetRawFingerprint copies a raw sub-fingerprint sequence into a slot.
func (m *MatcherSession) SetRawFingerprint(idx int, hashes []uint32) error {
	if idx < 0 || idx > 1 {
		return ErrInvalidSlot
	}
	m.fps[idx] = models.Fingerprint{Algorithm: m.algorithm, Hashes: hashes}.Clone()
	m.done = false
	return nil
}

// Run executes the segment matcher over the two slots.
func (m *MatcherSession) Run(ctx context.Context) error {
	segments, err := m.match.Match(ctx, m.fps[0], m.fps[1])
	if err != nil {
		return err
	}
	m.segments = segments
	m.done = true
	return nil
}

// NumSegments returns how many matching segments Run found.
func (m *MatcherSession) NumSegments() (int, error) {
	if !m.done {
		return 0, ErrNotFinished
	}
	return len(m.segments), nil
}

// Segment returns one matching segment by index.
func (m *MatcherSession) Segment(idx int) (matcher.Segment, error) {
	if !m.done {
		return matcher.Segment{}, ErrNotFinished
	}
	if idx < 0 || idx >= len(m.segments) {
		return matcher.Segment{}, fmt.Errorf("%w: %d", ErrInvalidSegmentIndex, idx)
	}
	return m.segments[idx], nil
}

// SegmentPositionMs returns a segment's positions and duration in
// milliseconds, converted through the algorithm's hop duration.
func (m *MatcherSession) SegmentPositionMs(idx int) (posA, posB, duration int, err error) {
	seg, err := m.Segment(idx)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(seg.TimeA(m.hop).Milliseconds()),
		int(seg.TimeB(m.hop).Milliseconds()),
		int(seg.Duration(m.hop).Milliseconds()),
		nil
}

// SegmentScore returns a segment's similarity percentage.
func (m *MatcherSession) SegmentScore(idx int) (int, error) {
	seg, err := m.Segment(idx)
	if err != nil {
		return 0, err
	}
	return seg.Confidence(), nil
}
