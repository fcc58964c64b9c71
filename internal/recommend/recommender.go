package recommend

import (
	"context"
	"fmt"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/vector"
)

// Pair is a category's store and the index built over it.
type Pair struct {
	Store *catalog.Store
	Index vector.Index
}

// Related holds the two orderings of a related recommendation.
type Related struct {
	// ByCost is the k_primary closest entities, reordered by ascending cost.
	ByCost *Result
	// ByDistance is the k_secondary closest entities in distance order.
	ByDistance *Result
}

// RecommendRelated recommends entities of the same category as ids, excluding ids
// themselves. Categories whose entities do not all carry a cost fail with
// models.ErrUnsupportedSort.
func RecommendRelated(ctx context.Context, pair Pair, ids []string, kPrimary, kSecondary int) (*Related, error) {
	vec, err := Aggregate(pair.Store, ids)
	if err != nil {
		return nil, err
	}
	out := &Related{}
	req := NewRequest(kPrimary, ids)
	req.Sort = models.CostAscending
	if out.ByCost, err = Retrieve(ctx, pair.Index, pair.Store, vec, req); err != nil {
		return nil, fmt.Errorf("cost-ordered retrieval failed: %w", err)
	}
	if out.ByDistance, err = Retrieve(ctx, pair.Index, pair.Store, vec, NewRequest(kSecondary, ids)); err != nil {
		return nil, fmt.Errorf("distance-ordered retrieval failed: %w", err)
	}
	return out, nil
}

// RecommendCrossCategory ranks the target category against a query vector computed in
// another category. Nothing is excluded and no secondary ordering is applied.
func RecommendCrossCategory(ctx context.Context, target Pair, vec []float32, k int) (*Result, error) {
	return Retrieve(ctx, target.Index, target.Store, vec, Request{K: k})
}
