package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/synergy/internal/catalog"
	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/internal/vector"
)

// Request describes one ranked retrieval.
type Request struct {
	// K is the number of results wanted.
	K int
	// Exclude holds ids removed from the candidates.
	Exclude map[string]struct{}
	// Overfetch is added to K when querying the index, to leave room for exclusions.
	Overfetch int
	// Sort, when set, reorders the surviving candidates before truncation.
	Sort *models.SortPolicy
}

// NewRequest builds a request for k results that excludes the given ids and over-fetches
// by the number of distinct excluded ids. Excluded ids that are not among the first
// k+overfetch neighbors still consume a slot, so the result can hold fewer than k ids;
// Result.Short reports it.
func NewRequest(k int, exclude []string) Request {
	req := Request{K: k}
	if len(exclude) > 0 {
		req.Exclude = make(map[string]struct{}, len(exclude))
		for _, id := range exclude {
			req.Exclude[id] = struct{}{}
		}
	}
	req.Overfetch = len(req.Exclude)
	return req
}

// Result is the outcome of a retrieval.
type Result struct {
	IDs       []string  `json:"ids"`
	Distances []float32 `json:"distances"`
	// Requested is the K the caller asked for.
	Requested int `json:"requested"`
	// Candidates is the number of neighbors returned by the index before filtering.
	Candidates int `json:"candidates"`
}

// Short reports whether fewer than the requested number of ids survived.
func (r *Result) Short() bool {
	return len(r.IDs) < r.Requested
}

// Retrieve queries index with vec and applies req. It performs no retries and never pads.
func Retrieve(ctx context.Context, index vector.Index, store *catalog.Store, vec []float32, req Request) (*Result, error) {
	result := &Result{Requested: req.K}
	if req.K <= 0 {
		result.Requested = 0
		return result, nil
	}
	if req.Sort != nil && !store.Schema().Supports(req.Sort.Key) {
		return nil, fmt.Errorf("%w: %s not carried by every %s entity", models.ErrUnsupportedSort, req.Sort.Key, store.Category())
	}
	overfetch := req.Overfetch
	if overfetch < 0 {
		overfetch = 0
	}

	neighbors, err := index.Query(ctx, vec, req.K+overfetch)
	if err != nil {
		return nil, err
	}
	result.Candidates = len(neighbors)

	kept := neighbors[:0:0]
	for _, n := range neighbors {
		if _, skip := req.Exclude[n.ID]; skip {
			continue
		}
		kept = append(kept, n)
	}
	if req.Sort != nil {
		sortByAttribute(kept, store, req.Sort)
	}
	if len(kept) > req.K {
		kept = kept[:req.K]
	}

	result.IDs = make([]string, len(kept))
	result.Distances = make([]float32, len(kept))
	for i, n := range kept {
		result.IDs[i] = n.ID
		result.Distances[i] = n.Distance
	}
	return result, nil
}

// sortByAttribute is stable: candidates with equal attribute values keep distance order.
func sortByAttribute(ns []vector.Neighbor, store *catalog.Store, policy *models.SortPolicy) {
	key := func(n vector.Neighbor) int {
		pos, ok := store.Position(n.ID)
		if !ok {
			return 0
		}
		return store.Attributes(pos).Cost
	}
	sort.SliceStable(ns, func(i, j int) bool {
		a, b := key(ns[i]), key(ns[j])
		if policy.Order == models.Descending {
			return a > b
		}
		return a < b
	})
}
