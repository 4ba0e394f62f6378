package waveprint

import (
	"context"
	"time"

	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
)

type Service interface {
	AddRecording(ctx context.Context, audioPath, title string) (string, error)
	FindDuplicates(ctx context.Context, audioPath string) ([]models.MatchResult, error)
	CompareFiles(ctx context.Context, pathA, pathB string) ([]matcher.Segment, error)
	FingerprintFile(audioPath string) (models.Fingerprint, error)
	GetRecording(id string) (*models.Recording, error)
	ListRecordings() ([]models.Recording, error)
	DeleteRecording(id string) error
	Algorithm() models.Algorithm
	HopDuration() time.Duration
	Close() error
}

type Storage interface {
	RegisterRecording(rec models.Recording) (string, error)
	GetRecordingByID(id string) (*models.Recording, error)
	ListRecordings() ([]models.Recording, error)
	DeleteRecordingByID(id string) error
	CountRecordings() (int, error)
	FindCandidates(alg models.Algorithm, sig uint32, radius int) ([]models.Recording, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
