package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hyperjump/synergy/internal/models"
)

func TestFlatIndex_QueryL2(t *testing.T) {
	idx, err := NewFlatIndex(abc(), models.MetricL2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	results, err := idx.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := neighborIDs(results); !equalIDs(got, []string{"A", "C", "B"}) {
		t.Errorf("order: got %v", got)
	}
	if results[0].Distance != 0 {
		t.Errorf("self distance should be 0, got %v", results[0].Distance)
	}
	want := float32(math.Sqrt(0.02))
	if math.Abs(float64(results[1].Distance-want)) > 1e-6 {
		t.Errorf("distance to C: got %v, want %v", results[1].Distance, want)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("distances not ascending at %d: %v", i, results)
		}
	}
}

func TestFlatIndex_QueryInnerProduct(t *testing.T) {
	idx, err := NewFlatIndex(abc(), models.MetricInnerProduct)
	if err != nil {
		t.Fatal(err)
	}
	results, err := idx.Query(context.Background(), []float32{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := neighborIDs(results); !equalIDs(got, []string{"B", "C"}) {
		t.Errorf("order: got %v", got)
	}
	if results[0].Distance < results[1].Distance {
		t.Error("inner product scores should be descending")
	}
}

func TestFlatIndex_KClamping(t *testing.T) {
	idx, _ := NewFlatIndex(abc(), models.MetricL2)
	ctx := context.Background()
	tests := []struct {
		k    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{2, 2},
		{3, 3},
		{100, 3},
	}
	for _, tt := range tests {
		results, err := idx.Query(ctx, []float32{1, 0}, tt.k)
		if err != nil {
			t.Fatalf("k=%d: %v", tt.k, err)
		}
		if len(results) != tt.want {
			t.Errorf("k=%d: got %d results, want %d", tt.k, len(results), tt.want)
		}
	}
}

func TestFlatIndex_TiesBreakByPosition(t *testing.T) {
	src := newSliceSource(
		[]string{"Z", "Y", "X", "W"},
		[][]float32{{0, 1}, {1, 0}, {0, -1}, {-1, 0}},
	)
	idx, _ := NewFlatIndex(src, models.MetricL2)
	for i := 0; i < 20; i++ {
		results, err := idx.Query(context.Background(), []float32{0, 0}, 4)
		if err != nil {
			t.Fatal(err)
		}
		if got := neighborIDs(results); !equalIDs(got, []string{"Z", "Y", "X", "W"}) {
			t.Fatalf("equidistant vectors should keep insertion order, got %v", got)
		}
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(abc(), models.MetricL2)
	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 2)
	var dm *models.DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dm.Got != 3 || dm.Want != 2 {
		t.Errorf("got %+v", dm)
	}
}

func TestFlatIndex_ConcurrentQueries(t *testing.T) {
	idx, _ := NewFlatIndex(abc(), models.MetricL2)
	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := idx.Query(ctx, []float32{1, 0}, 2)
			if err != nil {
				errs <- err
				return
			}
			if !equalIDs(neighborIDs(results), []string{"A", "C"}) {
				errs <- errors.New("unexpected order")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	src := abc()
	idx, _ := NewFlatIndex(src, models.MetricInnerProduct)
	path := filepath.Join(t.TempDir(), "nested", "items.idx")
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadFlat(path, src)
	if err != nil {
		t.Fatalf("LoadFlat: %v", err)
	}
	if loaded.Metric() != models.MetricInnerProduct || loaded.Size() != 3 || loaded.Dimension() != 2 {
		t.Errorf("loaded index: metric=%s size=%d dim=%d", loaded.Metric(), loaded.Size(), loaded.Dimension())
	}
	ctx := context.Background()
	want, _ := idx.Query(ctx, []float32{0.5, 0.5}, 3)
	got, _ := loaded.Query(ctx, []float32{0.5, 0.5}, 3)
	if !equalIDs(neighborIDs(got), neighborIDs(want)) {
		t.Errorf("loaded index answers differently: %v vs %v", neighborIDs(got), neighborIDs(want))
	}
}

func TestLoadFlat_Errors(t *testing.T) {
	dir := t.TempDir()
	src := abc()
	idx, _ := NewFlatIndex(src, models.MetricL2)
	good := filepath.Join(dir, "good.idx")
	if err := idx.Save(good); err != nil {
		t.Fatal(err)
	}

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFlat(filepath.Join(dir, "missing.idx"), src)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.idx")
		if err := os.WriteFile(path, []byte("not an index"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFlat(path, src)
		if !errors.Is(err, models.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data, err := os.ReadFile(good)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "truncated.idx")
		if err := os.WriteFile(path, data[:len(data)-3], 0644); err != nil {
			t.Fatal(err)
		}
		_, err = LoadFlat(path, src)
		if !errors.Is(err, models.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("different count", func(t *testing.T) {
		other := newSliceSource([]string{"A", "B"}, [][]float32{{1, 0}, {0, 1}})
		_, err := LoadFlat(good, other)
		if !errors.Is(err, models.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("different order", func(t *testing.T) {
		other := newSliceSource([]string{"A", "C", "B"}, [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}})
		_, err := LoadFlat(good, other)
		if !errors.Is(err, models.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})

	t.Run("different dimension", func(t *testing.T) {
		other := newSliceSource([]string{"A", "B", "C"}, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
		_, err := LoadFlat(good, other)
		if !errors.Is(err, models.ErrCorrupt) {
			t.Errorf("expected ErrCorrupt, got %v", err)
		}
	})
}

func TestSimilarityHelpers(t *testing.T) {
	if got := L2Distance([]float32{0, 0}, []float32{3, 4}); got != 5 {
		t.Errorf("L2Distance: got %v", got)
	}
	if got := InnerProduct([]float32{1, 2}, []float32{3, 4}); got != 11 {
		t.Errorf("InnerProduct: got %v", got)
	}
	if got := InnerProduct([]float32{1}, []float32{1, 2}); got != 0 {
		t.Errorf("InnerProduct with mismatched lengths: got %v", got)
	}
}

func BenchmarkFlatIndex_Query(b *testing.B) {
	const n, dim = 500, 1536
	ids := make([]string, n)
	vecs := make([][]float32, n)
	for i := range vecs {
		ids[i] = fmt.Sprintf("entity-%d", i)
		vecs[i] = make([]float32, dim)
		for j := range vecs[i] {
			vecs[i][j] = float32((i*31+j*17)%97) / 97
		}
	}
	idx, err := NewFlatIndex(newSliceSource(ids, vecs), models.MetricL2)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Query(ctx, vecs[i%n], 25); err != nil {
			b.Fatal(err)
		}
	}
}
