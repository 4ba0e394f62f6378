// Package storage persists the recording catalog: metadata, the compressed
// fingerprint blob, and the simhash signature used for candidate pre-filtering.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/simhash"
)

const DefaultDBFile = "waveprint.sqlite3"

var errClientNil = errors.New("storage: db client is nil")

// ErrNotFound is returned when a recording id has no catalog entry.
var ErrNotFound = errors.New("storage: recording not found")

// DBClient wraps the gorm handle for the catalog database.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Recording is the catalog row. The fingerprint is stored compressed; the
// simhash column is indexed so candidate scans stay cheap even though the
// Hamming filter itself runs in Go.
type Recording struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Title       string `gorm:"index:idx_recording_title"`
	Source      string
	DurationMs  int
	Algorithm   int    `gorm:"index:idx_recording_algorithm"`
	SimHash     uint32 `gorm:"index:idx_recording_simhash"`
	Fingerprint []byte
	CreatedAt   time.Time
}

// NewDBClient opens the catalog at WAVEPRINT_DB_PATH, or the default file.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("WAVEPRINT_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

// NewDBClientWithPath opens (and migrates) the catalog database at dbPath.
func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Recording{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterRecording inserts a new catalog entry and returns its generated id.
func (c *DBClient) RegisterRecording(rec models.Recording) (string, error) {
	if c == nil || c.DB == nil {
		return "", errClientNil
	}

	row := Recording{
		ID:          uuid.NewString(),
		Title:       rec.Title,
		Source:      rec.Source,
		DurationMs:  rec.DurationMs,
		Algorithm:   int(rec.Algorithm),
		SimHash:     rec.SimHash,
		Fingerprint: rec.Fingerprint,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating recording: %w", err)
	}
	return row.ID, nil
}

// GetRecordingByID fetches one catalog entry.
func (c *DBClient) GetRecordingByID(id string) (*models.Recording, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var row Recording
	if err := c.DB.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying recording: %w", err)
	}
	rec := toDomain(row)
	return &rec, nil
}

// ListRecordings returns every catalog entry, newest first.
func (c *DBClient) ListRecordings() ([]models.Recording, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var rows []Recording
	if err := c.DB.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	recs := make([]models.Recording, len(rows))
	for i, row := range rows {
		recs[i] = toDomain(row)
	}
	return recs, nil
}

// DeleteRecordingByID removes a catalog entry.
func (c *DBClient) DeleteRecordingByID(id string) error {
	if c == nil || c.DB == nil {
		return errClientNil
	}
	res := c.DB.Where("id = ?", id).Delete(&Recording{})
	if res.Error != nil {
		return fmt.Errorf("deleting recording: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// CountRecordings returns the catalog size.
func (c *DBClient) CountRecordings() (int, error) {
	if c == nil || c.DB == nil {
		return 0, errClientNil
	}
	var count int64
	if err := c.DB.Model(&Recording{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting recordings: %w", err)
	}
	return int(count), nil
}

// FindCandidates returns the entries of the same algorithm whose simhash lies
// within the Hamming radius of sig. SQLite has no popcount, so rows are
// narrowed by algorithm in SQL and the bit distance is applied in Go.
func (c *DBClient) FindCandidates(alg models.Algorithm, sig uint32, radius int) ([]models.Recording, error) {
	if c == nil || c.DB == nil {
		return nil, errClientNil
	}
	var rows []Recording
	if err := c.DB.Where("algorithm = ?", int(alg)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	var recs []models.Recording
	for _, row := range rows {
		if simhash.Distance(row.SimHash, sig) <= radius {
			recs = append(recs, toDomain(row))
		}
	}
	return recs, nil
}

func toDomain(row Recording) models.Recording {
	return models.Recording{
		ID:          row.ID,
		Title:       row.Title,
		Source:      row.Source,
		DurationMs:  row.DurationMs,
		Algorithm:   models.Algorithm(row.Algorithm),
		SimHash:     row.SimHash,
		Fingerprint: row.Fingerprint,
	}
}
