// Package storage reads and writes embedding snapshots.
package storage

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/synergy/internal/models"
)

// Snapshot is the logical content of one category's embedding snapshot.
// Entities are kept in insertion order; that order is the index order.
type Snapshot struct {
	ID        string
	Category  models.Category
	Dimension int
	Metric    models.Metric
	Model     string
	CreatedAt time.Time
	Entities  []models.EntityRecord
}

// SnapshotReader loads a snapshot from path. A missing path yields a LoadError of kind
// NotFound; a malformed one a LoadError of kind Corrupt.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, path string) (*Snapshot, error)
}

// SnapshotWriter persists a snapshot to path, replacing any previous content.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, path string, snap *Snapshot) error
}

// Format names a snapshot encoding.
type Format string

const (
	FormatSQLite Format = "sqlite"
	FormatJSON   Format = "json"
)

// FormatFor infers the snapshot format from the file extension. JSON for ".json",
// SQLite otherwise.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatSQLite
}

// ReaderFor returns a reader matching the format of path.
func ReaderFor(path string) SnapshotReader {
	if FormatFor(path) == FormatJSON {
		return JSONSnapshots{}
	}
	return SQLiteSnapshots{}
}

// WriterFor returns a writer matching the format of path.
func WriterFor(path string) SnapshotWriter {
	if FormatFor(path) == FormatJSON {
		return JSONSnapshots{}
	}
	return SQLiteSnapshots{}
}
