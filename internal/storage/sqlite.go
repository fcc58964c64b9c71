package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/pkg/utils"
)

// SQLiteSnapshots reads and writes snapshots stored in a SQLite database file.
// One file holds exactly one category snapshot.
type SQLiteSnapshots struct{}

const snapshotSchema = `
	DROP TABLE IF EXISTS entities;
	DROP TABLE IF EXISTS snapshots;

	CREATE TABLE snapshots (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		metric TEXT NOT NULL,
		model TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE entities (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		description TEXT,
		cost INTEGER,
		has_cost INTEGER NOT NULL DEFAULT 0,
		embedding BLOB NOT NULL
	);
	`

// WriteSnapshot replaces the content of the database at path with snap.
// Parent directories are created if they do not exist. A snapshot without an ID gets a new UUID.
func (SQLiteSnapshots) WriteSnapshot(ctx context.Context, path string, snap *Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, category, dimension, metric, model, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, string(snap.Category), snap.Dimension, string(snap.Metric), snap.Model, snap.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (position, id, description, cost, has_cost, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range snap.Entities {
		var cost sql.NullInt64
		if e.Attributes.HasCost {
			cost = sql.NullInt64{Int64: int64(e.Attributes.Cost), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, e.ID, e.Description, cost, e.Attributes.HasCost, utils.EncodeFloat32s(e.Embedding)); err != nil {
			return fmt.Errorf("failed to insert entity %q: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ReadSnapshot loads the snapshot at path. The file is opened read-only.
func (SQLiteSnapshots) ReadSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, models.NotFound(path, err)
		}
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
	}
	defer db.Close()

	var (
		snap     Snapshot
		category string
		metric   string
		model    sql.NullString
	)
	err = db.QueryRowContext(ctx,
		`SELECT id, category, dimension, metric, model, created_at FROM snapshots LIMIT 1`,
	).Scan(&snap.ID, &category, &snap.Dimension, &metric, &model, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.Corrupt(path, "snapshot header missing")
	}
	if err != nil {
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: fmt.Errorf("read snapshot header: %w", err)}
	}
	snap.Category = models.Category(category)
	snap.Model = model.String
	if snap.Metric, err = models.ParseMetric(metric); err != nil {
		return nil, models.Corrupt(path, "%v", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, description, cost, has_cost, embedding FROM entities ORDER BY position`)
	if err != nil {
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: fmt.Errorf("read entities: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec         models.EntityRecord
			description sql.NullString
			cost        sql.NullInt64
			blob        []byte
		)
		if err := rows.Scan(&rec.ID, &description, &cost, &rec.Attributes.HasCost, &blob); err != nil {
			return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
		}
		rec.Description = description.String
		if rec.Attributes.HasCost {
			rec.Attributes.Cost = int(cost.Int64)
		}
		if rec.Embedding, err = utils.DecodeFloat32s(blob); err != nil {
			return nil, models.Corrupt(path, "entity %q: %v", rec.ID, err)
		}
		snap.Entities = append(snap.Entities, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
	}
	return &snap, nil
}
