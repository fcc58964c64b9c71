package config

import (
	"time"

	"github.com/hyperjump/synergy/internal/models"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	champions := &cfg.Categories.Champions
	if champions.SnapshotPath == "" {
		champions.SnapshotPath = "/usr/local/var/synergy/data/champions.db"
	}
	if champions.IndexPath == "" {
		champions.IndexPath = "/usr/local/var/synergy/data/champions.idx"
	}
	if champions.Metric == "" {
		champions.Metric = string(models.MetricL2)
	}
	// Champions are ordered by cost, so a snapshot without costs is unusable.
	if champions.RequireCost == nil {
		t := true
		champions.RequireCost = &t
	}

	items := &cfg.Categories.Items
	if items.SnapshotPath == "" {
		items.SnapshotPath = "/usr/local/var/synergy/data/items.db"
	}
	if items.IndexPath == "" {
		items.IndexPath = "/usr/local/var/synergy/data/items.idx"
	}
	if items.Metric == "" {
		items.Metric = string(models.MetricInnerProduct)
	}

	for _, c := range []*CategoryConfig{champions, items} {
		if c.IndexType == "" {
			c.IndexType = "flat"
		}
	}

	if cfg.Recommend.KPrimary == 0 {
		cfg.Recommend.KPrimary = models.DefaultKPrimary
	}
	if cfg.Recommend.KSecondary == 0 {
		cfg.Recommend.KSecondary = models.DefaultKSecondary
	}
	if cfg.Recommend.KItems == 0 {
		cfg.Recommend.KItems = models.DefaultKItems
	}
	if cfg.Recommend.MaxK == 0 {
		cfg.Recommend.MaxK = models.DefaultMaxK
	}

	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-ada-002"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 16
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 10
	}
	if cfg.Embedding.InitialInterval == 0 {
		cfg.Embedding.InitialInterval = 2 * time.Second
	}
	if cfg.Embedding.MaxInterval == 0 {
		cfg.Embedding.MaxInterval = 30 * time.Second
	}

	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.Qdrant.CollectionPrefix == "" {
		cfg.Qdrant.CollectionPrefix = "synergy_"
	}
}
