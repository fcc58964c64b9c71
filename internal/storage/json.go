package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/synergy/internal/models"
)

// JSONSnapshots reads and writes snapshots as a single JSON document. Intended for fixtures
// and small categories; the entities array order is the insertion order.
type JSONSnapshots struct{}

type jsonSnapshot struct {
	ID        string       `json:"id,omitempty"`
	Category  string       `json:"category"`
	Dimension int          `json:"dimension,omitempty"`
	Metric    string       `json:"metric,omitempty"`
	Model     string       `json:"model,omitempty"`
	CreatedAt time.Time    `json:"created_at,omitempty"`
	Entities  []jsonEntity `json:"entities"`
}

type jsonEntity struct {
	ID          string    `json:"id"`
	Embedding   []float32 `json:"embedding"`
	Cost        *int      `json:"cost,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ReadSnapshot decodes the JSON snapshot at path.
func (JSONSnapshots) ReadSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.NotFound(path, err)
		}
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: err}
	}
	var raw jsonSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &models.LoadError{Kind: models.LoadCorrupt, Source: path, Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	var metric models.Metric
	if raw.Metric != "" {
		if metric, err = models.ParseMetric(raw.Metric); err != nil {
			return nil, models.Corrupt(path, "%v", err)
		}
	}
	snap := &Snapshot{
		ID:        raw.ID,
		Category:  models.Category(raw.Category),
		Dimension: raw.Dimension,
		Metric:    metric,
		Model:     raw.Model,
		CreatedAt: raw.CreatedAt,
		Entities:  make([]models.EntityRecord, 0, len(raw.Entities)),
	}
	for _, e := range raw.Entities {
		rec := models.EntityRecord{ID: e.ID, Embedding: e.Embedding, Description: e.Description}
		if e.Cost != nil {
			rec.Attributes = models.Attributes{Cost: *e.Cost, HasCost: true}
		}
		snap.Entities = append(snap.Entities, rec)
	}
	return snap, nil
}

// WriteSnapshot encodes snap as indented JSON at path.
func (JSONSnapshots) WriteSnapshot(ctx context.Context, path string, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	raw := jsonSnapshot{
		ID:        snap.ID,
		Category:  string(snap.Category),
		Dimension: snap.Dimension,
		Metric:    string(snap.Metric),
		Model:     snap.Model,
		CreatedAt: snap.CreatedAt,
		Entities:  make([]jsonEntity, 0, len(snap.Entities)),
	}
	for _, e := range snap.Entities {
		je := jsonEntity{ID: e.ID, Embedding: e.Embedding, Description: e.Description}
		if e.Attributes.HasCost {
			cost := e.Attributes.Cost
			je.Cost = &cost
		}
		raw.Entities = append(raw.Entities, je)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
