package vector

import (
	"context"
	"testing"

	"github.com/hyperjump/synergy/internal/models"
)

func TestBuild_Flat(t *testing.T) {
	for _, typ := range []string{"flat", "memory", ""} {
		idx, err := Build(context.Background(), typ, abc(), models.MetricL2, Options{})
		if err != nil {
			t.Fatalf("Build(%q): %v", typ, err)
		}
		if idx.Type() != string(IndexTypeFlat) || idx.Size() != 3 {
			t.Errorf("Build(%q): type=%s size=%d", typ, idx.Type(), idx.Size())
		}
		_ = idx.Close()
	}
}

func TestBuild_Unknown(t *testing.T) {
	_, err := Build(context.Background(), "annoy", abc(), models.MetricL2, Options{})
	if err == nil {
		t.Error("expected error for unknown index type")
	}
}

func TestBuild_InvalidDimension(t *testing.T) {
	_, err := Build(context.Background(), "flat", newSliceSource(nil, nil), models.MetricL2, Options{})
	if err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestBuild_FAISS(t *testing.T) {
	if !IsFAISSAvailable() {
		t.Skip("FAISS not available (build with -tags=faiss)")
	}
	idx, err := Build(context.Background(), "faiss", abc(), models.MetricL2, Options{})
	if err != nil {
		t.Fatalf("Build(faiss): %v", err)
	}
	defer idx.Close()
	if idx.Size() != 3 {
		t.Errorf("Size=%d, want 3", idx.Size())
	}
}
