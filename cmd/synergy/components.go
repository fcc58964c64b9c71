package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/config"
	"github.com/hyperjump/synergy/internal/embedding"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/recommend"
	"github.com/hyperjump/synergy/internal/suggest"
	"github.com/hyperjump/synergy/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Service   *recommend.Service
	Suggester *suggest.Suggester
}

// Close releases the indexes and the suggester.
func (c *Components) Close() {
	if c.Service != nil {
		_ = c.Service.Close()
	}
	if c.Suggester != nil {
		_ = c.Suggester.Close()
	}
}

// pairSpecs turns the category sections of cfg into warm-up specs.
func pairSpecs(cfg *config.Config, logger *zap.Logger) map[models.Category]recommend.PairSpec {
	specs := make(map[models.Category]recommend.PairSpec, len(models.Categories))
	for _, category := range models.Categories {
		c := cfg.Category(category)
		metric, _ := models.ParseMetric(c.Metric)
		specs[category] = recommend.PairSpec{
			Source: catalog.Source{
				Category: category,
				Path:     c.SnapshotPath,
				Options: catalog.Options{
					RequireCost: c.RequireCostOrDefault(),
					Dimension:   c.Dimensions,
				},
			},
			IndexPath: c.IndexPath,
			IndexType: c.IndexType,
			Metric:    metric,
			Vector: vector.Options{
				Qdrant: vector.QdrantOptions{
					URL:        cfg.Qdrant.URL,
					Collection: cfg.Qdrant.Collection(category),
				},
				Logger: logger,
			},
		}
	}
	return specs
}

// initializeComponents loads every configured category. Categories that fail to load are
// logged and answered with 503; the error is only returned when none loaded.
func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	sg := suggest.New(suggest.WithLogger(logger))
	svc := recommend.NewService(
		recommend.WithLogger(logger),
		recommend.WithSuggester(sg),
		recommend.WithMaxK(cfg.Recommend.MaxK),
		recommend.WithDefaultSizes(cfg.Recommend.KPrimary, cfg.Recommend.KSecondary, cfg.Recommend.KItems),
	)
	c := &Components{Service: svc, Suggester: sg}
	if err := svc.Warm(ctx, pairSpecs(cfg, logger)); err != nil {
		available := false
		for _, st := range svc.Status() {
			available = available || st.Available
		}
		if !available {
			c.Close()
			return nil, fmt.Errorf("no category could be loaded: %w", err)
		}
		logger.Warn("serving with unavailable categories", zap.Error(err))
	}
	logger.Info("vector indexes initialized", zap.Bool("faiss_available", vector.IsFAISSAvailable()))
	return c, nil
}

// newEmbedder builds the embedding chain used by the build command: the OpenAI-compatible
// client wrapped in retries and an LRU cache. mock swaps in the deterministic embedder for
// offline dry runs.
func newEmbedder(cfg *config.Config, logger *zap.Logger, mock bool) (embedding.Embedder, string, error) {
	if mock {
		return embedding.NewMockEmbedder(cfg.Embedding.Dimensions), "mock", nil
	}
	client, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
		BaseURL:    cfg.Embedding.BaseURL,
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.Embedding.Timeout,
	})
	if err != nil {
		return nil, "", err
	}
	retrying := embedding.NewRetryingEmbedder(client, embedding.RetryPolicy{
		MaxAttempts:     cfg.Embedding.MaxRetries,
		InitialInterval: cfg.Embedding.InitialInterval,
		MaxInterval:     cfg.Embedding.MaxInterval,
	}, logger)
	return embedding.NewCachedEmbedder(retrying, cfg.Embedding.CacheSize), client.Model(), nil
}
