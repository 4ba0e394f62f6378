// Package waveprint identifies and deduplicates audio recordings through
// compact acoustic fingerprints. The service layer composes the fingerprint
// pipeline, the binary codec, the simhash pre-filter, and the segment matcher
// over a persistent recording catalog.
package waveprint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/waveprint/waveprint/pkg/logger"
	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/audio"
	"github.com/waveprint/waveprint/pkg/waveprint/codec"
	"github.com/waveprint/waveprint/pkg/waveprint/fingerprint"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
	"github.com/waveprint/waveprint/pkg/waveprint/simhash"
)

// dedupService is the default implementation of the Service interface.
type dedupService struct {
	storage Storage
	log     Logger
	config  *Config
	fpcfg   fingerprint.Config
	match   *matcher.Matcher
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = matcher.New()
	}

	fpcfg, err := fingerprint.ConfigFor(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	stor := cfg.Storage
	if stor == nil {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &dedupService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
		fpcfg:   fpcfg,
		match:   cfg.Matcher,
	}, nil
}

func (s *dedupService) Algorithm() models.Algorithm { return s.config.Algorithm }

func (s *dedupService) HopDuration() time.Duration { return s.fpcfg.HopDuration() }

// FingerprintFile decodes a WAV file and runs the full fingerprint pipeline.
func (s *dedupService) FingerprintFile(audioPath string) (models.Fingerprint, error) {
	fp, _, err := s.fingerprintFile(audioPath)
	return fp, err
}

func (s *dedupService) fingerprintFile(audioPath string) (models.Fingerprint, int, error) {
	clip, err := audio.ReadFile(audioPath)
	if err != nil {
		return models.Fingerprint{}, 0, err
	}

	fpr, err := fingerprint.New(s.config.Algorithm)
	if err != nil {
		return models.Fingerprint{}, 0, err
	}
	fpr.Consume(clip.AtRate(s.fpcfg.SampleRate))
	return fpr.Finish(), clip.DurationMs(), nil
}

// AddRecording fingerprints an audio file and stores it in the catalog.
func (s *dedupService) AddRecording(ctx context.Context, audioPath, title string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.log.Infof("Adding recording: %s (%s)", title, audioPath)

	fp, durationMs, err := s.fingerprintFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("fingerprinting failed: %w", err)
	}
	if fp.Empty() {
		return "", fmt.Errorf("fingerprinting failed: %s is too short to fingerprint", audioPath)
	}

	blob, err := codec.Compress(fp)
	if err != nil {
		return "", fmt.Errorf("compressing fingerprint: %w", err)
	}

	id, err := s.storage.RegisterRecording(models.Recording{
		Title:       title,
		Source:      audioPath,
		DurationMs:  durationMs,
		Algorithm:   fp.Algorithm,
		SimHash:     simhash.Hash(fp),
		Fingerprint: blob,
	})
	if err != nil {
		return "", fmt.Errorf("failed to register recording: %w", err)
	}

	s.log.Infof("Added recording %s: %d frames, %d bytes compressed", id, len(fp.Hashes), len(blob))
	return id, nil
}

// FindDuplicates fingerprints a query file and reports catalogued recordings
// that overlap it. The simhash signature narrows the catalog before the
// segment matcher verifies each candidate.
func (s *dedupService) FindDuplicates(ctx context.Context, audioPath string) ([]models.MatchResult, error) {
	s.log.Infof("Searching duplicates of: %s", audioPath)

	query, _, err := s.fingerprintFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting failed: %w", err)
	}
	if query.Empty() {
		return nil, fmt.Errorf("fingerprinting failed: %s is too short to fingerprint", audioPath)
	}

	sig := simhash.Hash(query)
	candidates, err := s.storage.FindCandidates(query.Algorithm, sig, s.config.SimHashRadius)
	if err != nil {
		return nil, fmt.Errorf("candidate lookup failed: %w", err)
	}
	s.log.Debugf("Simhash pre-filter kept %d candidates", len(candidates))

	hop := s.fpcfg.HopDuration()
	var results []models.MatchResult
	for _, cand := range candidates {
		fp, err := codec.Decompress(cand.Fingerprint)
		if err != nil {
			s.log.Warnf("Skipping recording %s: %v", cand.ID, err)
			continue
		}

		segments, err := s.match.Match(ctx, query, fp)
		if err != nil {
			return nil, fmt.Errorf("matching against %s: %w", cand.ID, err)
		}
		if len(segments) == 0 {
			continue
		}

		best := segments[0]
		matched := 0
		for _, seg := range segments {
			matched += seg.Length
			if seg.Confidence() > best.Confidence() {
				best = seg
			}
		}
		if best.Confidence() < s.config.MinConfidence {
			continue
		}

		results = append(results, models.MatchResult{
			RecordingID:   cand.ID,
			Title:         cand.Title,
			SimHashDist:   simhash.Distance(sig, cand.SimHash),
			Confidence:    best.Confidence(),
			MatchedFrames: matched,
			BestOffsetMs:  int(best.TimeA(hop).Milliseconds()),
			SegmentCount:  len(segments),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].MatchedFrames > results[j].MatchedFrames
	})

	s.log.Infof("Found %d duplicate candidates", len(results))
	return results, nil
}

// CompareFiles fingerprints two audio files and returns their matching
// segments.
func (s *dedupService) CompareFiles(ctx context.Context, pathA, pathB string) ([]matcher.Segment, error) {
	fpA, _, err := s.fingerprintFile(pathA)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", pathA, err)
	}
	fpB, _, err := s.fingerprintFile(pathB)
	if err != nil {
		return nil, fmt.Errorf("fingerprinting %s: %w", pathB, err)
	}
	return s.match.Match(ctx, fpA, fpB)
}

func (s *dedupService) GetRecording(id string) (*models.Recording, error) {
	return s.storage.GetRecordingByID(id)
}

func (s *dedupService) ListRecordings() ([]models.Recording, error) {
	return s.storage.ListRecordings()
}

func (s *dedupService) DeleteRecording(id string) error {
	return s.storage.DeleteRecordingByID(id)
}

func (s *dedupService) Close() error {
	return s.storage.Close()
}
