package waveprint

import "github.com/waveprint/waveprint/pkg/waveprint/storage"

// The catalog client speaks domain types directly, so it satisfies Storage
// without an adapter layer.
var _ Storage = (*storage.DBClient)(nil)

// NewSQLiteStorage opens a SQLite-backed recording catalog.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return storage.NewDBClientWithPath(dbPath)
}
