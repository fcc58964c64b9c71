package recommend

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/vector"
	"github.com/hyperjump/synergy/pkg/utils"
)

// PairSpec describes how to load one category's store and index.
type PairSpec struct {
	Source catalog.Source
	// IndexPath is a prebuilt flat index file. When empty or absent, the index is built
	// from the store.
	IndexPath string
	IndexType string
	// Metric is the configured metric. It must agree with the metric recorded in the
	// snapshot, when the snapshot records one.
	Metric models.Metric
	Vector vector.Options
}

// LoadPair loads the store described by spec and the index over it. Any failure is returned
// as a *models.LoadError tagged with the category; nothing is returned partially loaded.
func LoadPair(ctx context.Context, spec PairSpec, logger *zap.Logger) (Pair, error) {
	logger = utils.OrNop(logger).With(zap.String("category", string(spec.Source.Category)))

	store, err := catalog.Load(ctx, spec.Source)
	if err != nil {
		return Pair{}, err
	}
	metric := spec.Metric
	if metric != "" && store.Metric() != "" && metric != store.Metric() {
		le := models.Corrupt(spec.Source.Path, "snapshot built with %s, category configured for %s", store.Metric(), metric)
		le.Category = store.Category()
		return Pair{}, le
	}
	if metric == "" {
		metric = store.Metric()
	}
	if metric == "" {
		metric = models.MetricL2
	}

	index, err := loadIndex(ctx, spec, store, metric, logger)
	if err != nil {
		var le *models.LoadError
		if errors.As(err, &le) {
			if le.Category == "" {
				le.Category = store.Category()
			}
			return Pair{}, le
		}
		return Pair{}, &models.LoadError{Kind: models.LoadCorrupt, Category: store.Category(), Source: spec.IndexPath, Err: err}
	}
	logger.Info("category loaded",
		zap.Int("entities", store.Len()),
		zap.Int("dimensions", store.Dimension()),
		zap.String("metric", string(index.Metric())),
		zap.String("index_type", index.Type()),
	)
	return Pair{Store: store, Index: index}, nil
}

func loadIndex(ctx context.Context, spec PairSpec, store *catalog.Store, metric models.Metric, logger *zap.Logger) (vector.Index, error) {
	typ := vector.IndexType(spec.IndexType)
	flat := typ == "" || typ == vector.IndexTypeFlat || typ == "memory"
	if flat && spec.IndexPath != "" {
		idx, err := vector.LoadFlat(spec.IndexPath, store)
		switch {
		case err == nil:
			if idx.Metric() != metric {
				return nil, models.Corrupt(spec.IndexPath, "index built with %s, category configured for %s", idx.Metric(), metric)
			}
			logger.Debug("prebuilt index loaded", zap.String("path", spec.IndexPath))
			return idx, nil
		case errors.Is(err, models.ErrNotFound):
			logger.Warn("prebuilt index not found, building from snapshot", zap.String("path", spec.IndexPath))
		default:
			return nil, err
		}
	}
	idx, err := vector.Build(ctx, spec.IndexType, store, metric, spec.Vector)
	if err != nil {
		return nil, fmt.Errorf("build %s index: %w", spec.IndexType, err)
	}
	return idx, nil
}
