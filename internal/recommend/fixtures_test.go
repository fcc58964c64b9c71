package recommend

import (
	"testing"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/vector"
)

func cost(c int) models.Attributes {
	return models.Attributes{Cost: c, HasCost: true}
}

// examplePair is the three-champion catalog: A [1,0] cost 1, B [0,1] cost 3, C [0.9,0.1] cost 2.
func examplePair(t testing.TB) Pair {
	t.Helper()
	return newPair(t, models.CategoryChampions, models.MetricL2, []models.EntityRecord{
		{ID: "A", Embedding: []float32{1, 0}, Attributes: cost(1)},
		{ID: "B", Embedding: []float32{0, 1}, Attributes: cost(3)},
		{ID: "C", Embedding: []float32{0.9, 0.1}, Attributes: cost(2)},
	})
}

func itemPair(t testing.TB) Pair {
	t.Helper()
	return newPair(t, models.CategoryItems, models.MetricInnerProduct, []models.EntityRecord{
		{ID: "Sword", Embedding: []float32{1, 0}},
		{ID: "Shield", Embedding: []float32{0, 1}},
		{ID: "Bow", Embedding: []float32{0.7, 0.3}},
	})
}

func newPair(t testing.TB, category models.Category, metric models.Metric, records []models.EntityRecord) Pair {
	t.Helper()
	store, err := catalog.NewStore(category, records, catalog.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	idx, err := vector.NewFlatIndex(store, metric)
	if err != nil {
		t.Fatalf("NewFlatIndex: %v", err)
	}
	return Pair{Store: store, Index: idx}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
