// Package catalog provides the immutable vector store: entity records and their embeddings
// for one category, in snapshot insertion order.
package catalog

import (
	"context"
	"errors"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/storage"
)

// Store maps entity ids to records. It is immutable after construction and safe for
// concurrent readers.
type Store struct {
	category   models.Category
	snapshotID string
	model      string
	metric     models.Metric
	dimension  int
	records    []models.EntityRecord
	positions  map[string]int
	schema     models.Schema
}

// Options controls validation applied while building a Store.
type Options struct {
	// RequireCost rejects snapshots in which any record lacks a cost.
	RequireCost bool
	// Dimension, when positive, is the dimension every record must have.
	Dimension int
}

// Source locates a snapshot for one category.
type Source struct {
	Category models.Category
	Path     string
	Options  Options
	// Reader overrides the reader inferred from Path.
	Reader storage.SnapshotReader
}

// Load reads the snapshot described by src and builds a Store. It either fully succeeds or
// returns a *models.LoadError; no partial store is returned.
func Load(ctx context.Context, src Source) (*Store, error) {
	reader := src.Reader
	if reader == nil {
		reader = storage.ReaderFor(src.Path)
	}
	snap, err := reader.ReadSnapshot(ctx, src.Path)
	if err != nil {
		return nil, withCategory(err, src.Category, src.Path)
	}
	if snap.Category != "" && src.Category != "" && snap.Category != src.Category {
		return nil, withCategory(models.Corrupt(src.Path, "snapshot holds %s, expected %s", snap.Category, src.Category), src.Category, src.Path)
	}
	opts := src.Options
	if opts.Dimension <= 0 {
		opts.Dimension = snap.Dimension
	}
	category := src.Category
	if category == "" {
		category = snap.Category
	}
	s, err := NewStore(category, snap.Entities, opts)
	if err != nil {
		return nil, withCategory(err, category, src.Path)
	}
	s.snapshotID = snap.ID
	s.model = snap.Model
	s.metric = snap.Metric
	return s, nil
}

// NewStore validates records and builds a Store that owns copies of them.
// Validation failures are returned as *models.LoadError of kind Corrupt.
func NewStore(category models.Category, records []models.EntityRecord, opts Options) (*Store, error) {
	if len(records) == 0 {
		return nil, models.Corrupt("", "snapshot has no entities")
	}
	dim := opts.Dimension
	if dim <= 0 {
		dim = len(records[0].Embedding)
	}
	if dim == 0 {
		return nil, models.Corrupt("", "entity %q has an empty embedding", records[0].ID)
	}

	s := &Store{
		category:  category,
		dimension: dim,
		records:   make([]models.EntityRecord, len(records)),
		positions: make(map[string]int, len(records)),
		schema:    models.Schema{Cost: true},
	}
	for i, r := range records {
		if r.ID == "" {
			return nil, models.Corrupt("", "entity at position %d has an empty id", i)
		}
		if _, dup := s.positions[r.ID]; dup {
			return nil, models.Corrupt("", "duplicate entity id %q", r.ID)
		}
		if len(r.Embedding) != dim {
			return nil, models.Corrupt("", "entity %q has dimension %d, expected %d", r.ID, len(r.Embedding), dim)
		}
		emb := make([]float32, dim)
		copy(emb, r.Embedding)
		r.Embedding = emb
		s.records[i] = r
		s.positions[r.ID] = i
		if !r.Attributes.HasCost {
			s.schema.Cost = false
		}
	}
	if opts.RequireCost && !s.schema.Cost {
		return nil, models.Corrupt("", "every %s entity must carry a cost", category)
	}
	return s, nil
}

// Get returns a copy of the record for id. Lookup is exact and case-sensitive.
func (s *Store) Get(id string) (models.EntityRecord, error) {
	pos, ok := s.positions[id]
	if !ok {
		return models.EntityRecord{}, &models.UnknownEntityError{ID: id, Category: s.category}
	}
	rec := s.records[pos]
	rec.Embedding = append([]float32(nil), rec.Embedding...)
	return rec, nil
}

// Position returns the insertion position of id.
func (s *Store) Position(id string) (int, bool) {
	pos, ok := s.positions[id]
	return pos, ok
}

// Vector returns the embedding at position pos. The returned slice is shared and must not
// be modified.
func (s *Store) Vector(pos int) []float32 {
	return s.records[pos].Embedding
}

// ID returns the entity id at position pos.
func (s *Store) ID(pos int) string {
	return s.records[pos].ID
}

// Attributes returns the attributes of the entity at position pos.
func (s *Store) Attributes(pos int) models.Attributes {
	return s.records[pos].Attributes
}

// IDs returns all entity ids in insertion order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.records))
	for i, r := range s.records {
		ids[i] = r.ID
	}
	return ids
}

// Dimension returns the fixed embedding dimension.
func (s *Store) Dimension() int { return s.dimension }

// Len returns the number of entities.
func (s *Store) Len() int { return len(s.records) }

// Category returns the category the store was loaded for.
func (s *Store) Category() models.Category { return s.category }

// Schema returns the attributes every record carries.
func (s *Store) Schema() models.Schema { return s.schema }

// SnapshotID returns the id of the snapshot the store was loaded from, if any.
func (s *Store) SnapshotID() string { return s.snapshotID }

// Model returns the embedding model recorded in the snapshot, if any.
func (s *Store) Model() string { return s.model }

// Metric returns the metric recorded in the snapshot, if any.
func (s *Store) Metric() models.Metric { return s.metric }

func withCategory(err error, category models.Category, source string) error {
	var le *models.LoadError
	if errors.As(err, &le) {
		if le.Category == "" {
			le.Category = category
		}
		if le.Source == "" {
			le.Source = source
		}
		return le
	}
	return &models.LoadError{Kind: models.LoadCorrupt, Category: category, Source: source, Err: err}
}
