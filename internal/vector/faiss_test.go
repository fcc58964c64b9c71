//go:build faiss && cgo
// +build faiss,cgo

package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/hyperjump/synergy/internal/models"
)

func TestFAISSIndex_MatchesFlat(t *testing.T) {
	ctx := context.Background()
	for _, metric := range []models.Metric{models.MetricL2, models.MetricInnerProduct} {
		fi, err := NewFAISSIndex(abc(), metric)
		if err != nil {
			t.Fatal(err)
		}
		flat, _ := NewFlatIndex(abc(), metric)
		for _, q := range [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}} {
			got, err := fi.Query(ctx, q, 3)
			if err != nil {
				t.Fatal(err)
			}
			want, _ := flat.Query(ctx, q, 3)
			if !equalIDs(neighborIDs(got), neighborIDs(want)) {
				t.Errorf("%s %v: faiss %v, flat %v", metric, q, neighborIDs(got), neighborIDs(want))
			}
			for i := range got {
				if math.Abs(float64(got[i].Distance-want[i].Distance)) > 1e-5 {
					t.Errorf("%s %v: distance %d differs: %v vs %v", metric, q, i, got[i].Distance, want[i].Distance)
				}
			}
		}
		_ = fi.Close()
	}
}

func TestFAISSIndex_TiesBreakByPosition(t *testing.T) {
	src := newSliceSource(
		[]string{"Z", "Y", "X", "W"},
		[][]float32{{0, 1}, {1, 0}, {0, -1}, {-1, 0}},
	)
	idx, err := NewFAISSIndex(src, models.MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	results, err := idx.Query(context.Background(), []float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := neighborIDs(results); !equalIDs(got, []string{"Z", "Y"}) {
		t.Errorf("got %v", got)
	}
}

func TestFAISSIndex_Save(t *testing.T) {
	idx, err := NewFAISSIndex(abc(), models.MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Save(filepath.Join(t.TempDir(), "champions.faiss")); err != nil {
		t.Fatal(err)
	}
}

func TestFAISSIndex_Closed(t *testing.T) {
	idx, err := NewFAISSIndex(abc(), models.MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()
	if _, err := idx.Query(context.Background(), []float32{1, 0}, 1); err == nil {
		t.Error("expected error querying a closed index")
	}
}
