package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/builder"
	"github.com/hyperjump/synergy/internal/config"
	"github.com/hyperjump/synergy/internal/models"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after names are moved first",
			args:     []string{"Teemo,", "Jarvan", "IV", "-output", "json"},
			expected: []string{"-output", "json", "Teemo,", "Jarvan", "IV"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-k", "5", "Ahri"},
			expected: []string{"-k", "5", "Ahri"},
		},
		{
			name:     "names only returns unchanged",
			args:     []string{"Ahri"},
			expected: []string{"Ahri"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"shell split", []string{"Teemo,", "Jarvan", "IV"}, []string{"Teemo", "Jarvan IV"}},
		{"quoted", []string{"Teemo, Jarvan IV"}, []string{"Teemo", "Jarvan IV"}},
		{"no spaces", []string{"Ahri,Lux"}, []string{"Ahri", "Lux"}},
		{"blank entries dropped", []string{",", "Ahri", ",,"}, []string{"Ahri"}},
		{"empty", []string{}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNames(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("parseNames(%v) = %v, want %v", tt.args, got, tt.expected)
			}
		})
	}
}

func TestBuildCategories(t *testing.T) {
	all, err := buildCategories("ALL")
	if err != nil || len(all) != 2 {
		t.Errorf("all: %v, %v", all, err)
	}
	one, err := buildCategories("items")
	if err != nil || len(one) != 1 || one[0] != models.CategoryItems {
		t.Errorf("items: %v, %v", one, err)
	}
	if _, err := buildCategories("runes"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestPairSpecs(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	specs := pairSpecs(cfg, zap.NewNop())
	champions := specs[models.CategoryChampions]
	if !champions.Source.Options.RequireCost || champions.Metric != models.MetricL2 {
		t.Errorf("champions spec: %+v", champions)
	}
	items := specs[models.CategoryItems]
	if items.Source.Options.RequireCost || items.Metric != models.MetricInnerProduct {
		t.Errorf("items spec: %+v", items)
	}
	if items.Vector.Qdrant.Collection != "synergy_items" {
		t.Errorf("qdrant collection: %s", items.Vector.Qdrant.Collection)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// TestBuildThenServe builds both snapshots with the offline embedder and answers queries
// from them, the way `synergy build --mock` followed by `synergy related` would.
func TestBuildThenServe(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "champions.json"), `{
		"Teemo": {"cost": 1, "ability_text": "Blinds the target"},
		"Poppy": {"cost": 1, "ability_text": "Throws her buckler"},
		"Jarvan IV": {"cost": 4, "ability_text": "Creates an arena"}
	}`)
	writeFile(t, filepath.Join(dir, "items.json"), `{
		"Sunfire Cape": {"Burn": "Burns nearby enemies"},
		"Bramble Vest": {"Thorns": "Reflects damage"}
	}`)
	writeFile(t, filepath.Join(dir, "config.yaml"), `
categories:
  champions:
    inputs: ["./champions.json"]
    snapshot_path: "./data/champions.db"
    index_path: "./data/champions.idx"
  items:
    inputs: ["./items.json"]
    snapshot_path: "./data/items.db"
    index_path: "./data/items.idx"
embedding:
  dimensions: 16
`)
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	emb, model, err := newEmbedder(cfg, zap.NewNop(), true)
	if err != nil {
		t.Fatal(err)
	}
	b := builder.New(emb)
	for _, cat := range models.Categories {
		c := cfg.Category(cat)
		metric, _ := models.ParseMetric(c.Metric)
		if _, err := b.Build(ctx, builder.Target{
			Category: cat, Inputs: c.Inputs, SnapshotPath: c.SnapshotPath, IndexPath: c.IndexPath,
			Metric: metric, Model: model,
		}); err != nil {
			t.Fatalf("build %s: %v", cat, err)
		}
	}

	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	rel, err := components.Service.Related(ctx, models.RelatedRequest{IDs: []string{"Teemo"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rel.ByCost) != 2 || rel.ByCost[0] != "Poppy" || rel.ByCost[1] != "Jarvan IV" {
		t.Errorf("by cost: got %v", rel.ByCost)
	}
	items, err := components.Service.ItemsFor(ctx, models.ItemsRequest{IDs: []string{"Teemo", "Jarvan IV"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(items.Items) != 2 {
		t.Errorf("items: got %v", items.Items)
	}
	for _, st := range components.Service.Report().Categories {
		if !st.Available || st.Model != "mock" || st.Dimension != 16 {
			t.Errorf("status: %+v", st)
		}
	}
}

func TestInitializeComponents_NothingLoads(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Categories.Champions.SnapshotPath = filepath.Join(dir, "missing-champions.db")
	cfg.Categories.Items.SnapshotPath = filepath.Join(dir, "missing-items.db")
	config.ApplyDefaults(cfg)
	if _, err := initializeComponents(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Error("expected error when no category loads")
	}
}
