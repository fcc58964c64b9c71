//go:build !faiss || !cgo
// +build !faiss !cgo

package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/synergy/internal/models"
)

const faissCompiled = false

// FAISSIndex is a stub that returns an error when FAISS is not available.
// Build with -tags=faiss to enable FAISS support.
type FAISSIndex struct{}

// NewFAISSIndex returns an error because FAISS is not available.
func NewFAISSIndex(src Source, metric models.Metric) (*FAISSIndex, error) {
	return nil, fmt.Errorf("FAISS not available: build with -tags=faiss and install FAISS library")
}

// Query is not implemented without FAISS.
func (f *FAISSIndex) Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	return nil, fmt.Errorf("FAISS not available")
}

// Metric returns L2 without FAISS.
func (f *FAISSIndex) Metric() models.Metric { return models.MetricL2 }

// Dimension returns 0 without FAISS.
func (f *FAISSIndex) Dimension() int { return 0 }

// Size returns 0 without FAISS.
func (f *FAISSIndex) Size() int { return 0 }

// Save is not implemented without FAISS.
func (f *FAISSIndex) Save(path string) error {
	return fmt.Errorf("FAISS not available")
}

// Close is a no-op without FAISS.
func (f *FAISSIndex) Close() error { return nil }

// Type returns the index type identifier.
func (f *FAISSIndex) Type() string { return string(IndexTypeFAISS) }
