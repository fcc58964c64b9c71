// Package vector provides exact nearest-neighbor indexes over a catalog of embeddings.
package vector

import (
	"context"
	"sort"

	"github.com/hyperjump/synergy/internal/models"
)

// Source is the read-only view of a store an index is built from. Positions are the
// store's insertion order and are the tie-break for equal distances.
type Source interface {
	Dimension() int
	Len() int
	ID(pos int) string
	Vector(pos int) []float32
}

// Index answers k-nearest-neighbor queries. Implementations are read-only after
// construction and safe for concurrent Query calls.
type Index interface {
	Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error)
	Metric() models.Metric
	Dimension() int
	Size() int
	Type() string
	Save(path string) error
	Close() error
}

// Neighbor is a single query hit. For L2, Distance is the Euclidean distance (smaller is
// closer). For inner product it is the score (larger is closer).
type Neighbor struct {
	ID       string
	Position int
	Distance float32
}

func checkQuery(vec []float32, dim int) error {
	if len(vec) != dim {
		return &models.DimensionMismatchError{Got: len(vec), Want: dim}
	}
	return nil
}

// clampK bounds k to [0, size].
func clampK(k, size int) int {
	if k <= 0 {
		return 0
	}
	if k > size {
		return size
	}
	return k
}

// sortNeighbors orders by metric, then by ascending position.
func sortNeighbors(ns []Neighbor, metric models.Metric) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return metric.Closer(ns[i].Distance, ns[j].Distance)
		}
		return ns[i].Position < ns[j].Position
	})
}
