// Package recommend turns entity selections into ranked recommendations: it averages the
// selected embeddings, queries a category index and applies exclusion, secondary ordering
// and truncation.
package recommend

import (
	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/models"
)

// Aggregate returns the elementwise mean of the embeddings of ids, in store dimension.
// Ids are resolved in input order; the first unknown one is reported. Repeated ids count
// once per occurrence.
func Aggregate(store *catalog.Store, ids []string) ([]float32, error) {
	if len(ids) == 0 {
		return nil, models.ErrEmptyQuery
	}
	positions := make([]int, len(ids))
	for i, id := range ids {
		pos, ok := store.Position(id)
		if !ok {
			return nil, &models.UnknownEntityError{ID: id, Category: store.Category()}
		}
		positions[i] = pos
	}

	dim := store.Dimension()
	sum := make([]float64, dim)
	for _, pos := range positions {
		for j, v := range store.Vector(pos) {
			sum[j] += float64(v)
		}
	}
	n := float64(len(positions))
	mean := make([]float32, dim)
	for j := range sum {
		mean[j] = float32(sum[j] / n)
	}
	return mean, nil
}
