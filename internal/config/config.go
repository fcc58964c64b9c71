// Package config provides configuration loading and structs for the synergy server and tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/synergy/internal/models"
)

// APIKeyEnv is the environment variable that overrides embedding.api_key.
const APIKeyEnv = "OPENAI_API_KEY"

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Categories CategoriesConfig `yaml:"categories"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Qdrant     QdrantConfig     `yaml:"qdrant"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns host:port.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CategoriesConfig holds one section per entity category.
type CategoriesConfig struct {
	Champions CategoryConfig `yaml:"champions"`
	Items     CategoryConfig `yaml:"items"`
}

// CategoryConfig locates a category's snapshot and index.
type CategoryConfig struct {
	// Inputs are the scraped JSON files (glob patterns allowed) the build command reads.
	Inputs       []string `yaml:"inputs"`
	SnapshotPath string   `yaml:"snapshot_path"`
	IndexPath    string   `yaml:"index_path"`
	IndexType    string   `yaml:"index_type"`
	Metric       string   `yaml:"metric"`
	Dimensions   int      `yaml:"dimensions"`
	RequireCost  *bool    `yaml:"require_cost"`
}

// RequireCostOrDefault returns whether every record must carry a cost; defaults to false when unset.
func (c *CategoryConfig) RequireCostOrDefault() bool {
	if c.RequireCost != nil {
		return *c.RequireCost
	}
	return false
}

// RecommendConfig holds default and maximum result sizes.
type RecommendConfig struct {
	KPrimary   int `yaml:"k_primary"`
	KSecondary int `yaml:"k_secondary"`
	KItems     int `yaml:"k_items"`
	MaxK       int `yaml:"max_k"`
}

// EmbeddingConfig holds settings for the remote embedding service used by the build command.
type EmbeddingConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	Dimensions      int           `yaml:"dimensions"`
	BatchSize       int           `yaml:"batch_size"`
	CacheSize       int           `yaml:"cache_size"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// QdrantConfig holds settings for the qdrant index type.
type QdrantConfig struct {
	URL              string `yaml:"url"`
	CollectionPrefix string `yaml:"collection_prefix"`
}

// Collection returns the collection name used for category.
func (q QdrantConfig) Collection(category models.Category) string {
	return q.CollectionPrefix + string(category)
}

// Category returns the section for category, or nil for an unknown category.
func (c *Config) Category(category models.Category) *CategoryConfig {
	switch category {
	case models.CategoryChampions:
		return &c.Categories.Champions
	case models.CategoryItems:
		return &c.Categories.Items
	default:
		return nil
	}
}

// Load reads and parses the config file at path, expands paths, applies defaults and
// picks up secrets from the environment (including a .env file next to the config or in
// the working directory). Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	for _, category := range models.Categories {
		c := cfg.Category(category)
		c.SnapshotPath = expandPath(c.SnapshotPath, configDir)
		c.IndexPath = expandPath(c.IndexPath, configDir)
		for i := range c.Inputs {
			c.Inputs[i] = expandPath(c.Inputs[i], configDir)
		}
	}

	LoadEnv(configDir)
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	for _, category := range models.Categories {
		cc := c.Category(category)
		if _, err := models.ParseMetric(cc.Metric); err != nil {
			return fmt.Errorf("categories.%s.metric: %w", category, err)
		}
		if cc.Dimensions < 0 {
			return fmt.Errorf("categories.%s.dimensions must not be negative", category)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// Save writes the config to path. The API key is never written.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.Embedding.APIKey = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// LoadEnv loads .env from the working directory and from dir. Variables already set in the
// environment take precedence; missing files are ignored.
func LoadEnv(dir string) {
	_ = godotenv.Load()
	if dir == "" {
		return
	}
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		_ = godotenv.Load(envPath)
	}
}

func applyEnv(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		cfg.Embedding.APIKey = key
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
