// Package builder turns scraped entity data into embedding snapshots and prebuilt indexes.
package builder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/embedding"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/storage"
	"github.com/hyperjump/synergy/internal/vector"
	"github.com/hyperjump/synergy/pkg/utils"
)

// DefaultBatchSize is the number of descriptions sent per embedding request.
const DefaultBatchSize = 16

// Target describes one category to build.
type Target struct {
	Category models.Category
	// Inputs are file paths or doublestar glob patterns of scraped JSON data.
	Inputs       []string
	SnapshotPath string
	// IndexPath, when set, receives a prebuilt flat index.
	IndexPath string
	// Metric defaults to the category metric: L2 for champions, inner product for items.
	Metric models.Metric
	// Model is recorded in the snapshot.
	Model string
}

// Report summarizes a finished build.
type Report struct {
	Category     models.Category `json:"category"`
	Entities     int             `json:"entities"`
	Dimension    int             `json:"dimension"`
	Metric       models.Metric   `json:"metric"`
	SnapshotID   string          `json:"snapshot_id"`
	SnapshotPath string          `json:"snapshot_path"`
	IndexPath    string          `json:"index_path,omitempty"`
	Inputs       []string        `json:"inputs"`
	Took         time.Duration   `json:"took"`
}

// Builder embeds entity descriptions and writes snapshots.
type Builder struct {
	embedder  embedding.Embedder
	batchSize int
	progress  Progress
	logger    *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = utils.OrNop(l) }
}

// WithBatchSize sets how many descriptions are embedded per request.
func WithBatchSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p Progress) Option {
	return func(b *Builder) {
		if p != nil {
			b.progress = p
		}
	}
}

// New creates a Builder that embeds with embedder.
func New(embedder embedding.Embedder, opts ...Option) *Builder {
	b := &Builder{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		progress:  noProgress{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// DefaultMetric returns the metric a category is indexed with unless configured otherwise.
func DefaultMetric(category models.Category) models.Metric {
	if category == models.CategoryItems {
		return models.MetricInnerProduct
	}
	return models.MetricL2
}

// Build reads t.Inputs, embeds every entity and writes the snapshot and index. Nothing is
// written unless every entity was embedded and validated.
func (b *Builder) Build(ctx context.Context, t Target) (*Report, error) {
	start := time.Now()
	if t.SnapshotPath == "" {
		return nil, fmt.Errorf("snapshot path is required for %s", t.Category)
	}
	metric := t.Metric
	if metric == "" {
		metric = DefaultMetric(t.Category)
	}
	logger := b.logger.With(zap.String("category", string(t.Category)))

	files, err := expandInputs(t.Inputs)
	if err != nil {
		return nil, err
	}
	raw, err := readEntities(files)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no %s found in %v", t.Category, files)
	}
	logger.Info("entities read", zap.Int("entities", len(raw)), zap.Strings("files", files))

	records, err := describe(t.Category, raw)
	if err != nil {
		return nil, err
	}
	if err := b.embed(ctx, t.Category, records); err != nil {
		return nil, err
	}

	store, err := catalog.NewStore(t.Category, records, catalog.Options{
		RequireCost: t.Category == models.CategoryChampions,
		Dimension:   b.embedder.Dimensions(),
	})
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", t.Category, err)
	}

	snap := &storage.Snapshot{
		Category:  t.Category,
		Dimension: store.Dimension(),
		Metric:    metric,
		Model:     t.Model,
		CreatedAt: time.Now().UTC(),
		Entities:  records,
	}
	if err := storage.WriterFor(t.SnapshotPath).WriteSnapshot(ctx, t.SnapshotPath, snap); err != nil {
		return nil, fmt.Errorf("write snapshot: %w", err)
	}
	logger.Info("snapshot written", zap.String("path", t.SnapshotPath), zap.String("snapshot_id", snap.ID))

	if t.IndexPath != "" {
		idx, err := vector.NewFlatIndex(store, metric)
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
		if err := idx.Save(t.IndexPath); err != nil {
			return nil, fmt.Errorf("save index: %w", err)
		}
		logger.Info("index written", zap.String("path", t.IndexPath), zap.String("metric", string(metric)))
	}

	return &Report{
		Category:     t.Category,
		Entities:     store.Len(),
		Dimension:    store.Dimension(),
		Metric:       metric,
		SnapshotID:   snap.ID,
		SnapshotPath: t.SnapshotPath,
		IndexPath:    t.IndexPath,
		Inputs:       files,
		Took:         time.Since(start),
	}, nil
}

// describe converts raw entities into records carrying normalized descriptions.
func describe(category models.Category, raw []rawEntity) ([]models.EntityRecord, error) {
	records := make([]models.EntityRecord, len(raw))
	for i, e := range raw {
		attrs, err := attributesOf(category, e)
		if err != nil {
			return nil, fmt.Errorf("%s (%s): %w", category, e.Source, err)
		}
		var text string
		if category == models.CategoryItems {
			text = itemDescription(e)
		} else {
			text = championDescription(e)
		}
		text = embedding.NormalizeDescription(text)
		if text == "" {
			return nil, fmt.Errorf("%s %q has an empty description", category, e.Name)
		}
		records[i] = models.EntityRecord{ID: e.Name, Attributes: attrs, Description: text}
	}
	return records, nil
}

// embed fills in the embedding of every record, batchSize descriptions at a time.
func (b *Builder) embed(ctx context.Context, category models.Category, records []models.EntityRecord) error {
	b.progress.Start(len(records), "embedding "+string(category))
	defer b.progress.Finish()

	for start := 0; start < len(records); start += b.batchSize {
		end := min(start+b.batchSize, len(records))
		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Description)
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed %s %d-%d: %w", category, start, end-1, err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, v := range vecs {
			records[start+i].Embedding = v
		}
		b.progress.Add(len(texts))
		b.logger.Debug("batch embedded", zap.String("category", string(category)), zap.Int("done", end), zap.Int("total", len(records)))
	}
	return nil
}
