package models

import "strings"

// Default result sizes for the caller-facing operations.
const (
	DefaultKPrimary   = 15
	DefaultKSecondary = 10
	DefaultKItems     = 15
	DefaultMaxK       = 100
)

// RelatedRequest asks for entities of Category related to IDs.
type RelatedRequest struct {
	Category   Category `json:"category,omitempty"`
	IDs        []string `json:"ids"`
	KPrimary   int      `json:"k_primary,omitempty"`
	KSecondary int      `json:"k_secondary,omitempty"`
}

// Validate trims ids, fills defaults and caps sizes at maxK.
func (r *RelatedRequest) Validate(maxK int) error {
	r.IDs = CleanIDs(r.IDs)
	if len(r.IDs) == 0 {
		return ErrEmptyQuery
	}
	if r.Category == "" {
		r.Category = CategoryChampions
	}
	r.KPrimary = clampK(r.KPrimary, DefaultKPrimary, maxK)
	r.KSecondary = clampK(r.KSecondary, DefaultKSecondary, maxK)
	return nil
}

// RelatedResponse carries the two orderings of a related recommendation.
type RelatedResponse struct {
	Category   Category `json:"category"`
	Query      []string `json:"query"`
	ByCost     []string `json:"by_cost"`
	ByDistance []string `json:"by_distance"`
	// ShortByCost and ShortByDistance are set when fewer than the requested number survived exclusion.
	ShortByCost     bool  `json:"short_by_cost,omitempty"`
	ShortByDistance bool  `json:"short_by_distance,omitempty"`
	QueryTime       int64 `json:"query_time_ms"`
}

// ItemsRequest asks for items matching the champions in IDs.
type ItemsRequest struct {
	IDs []string `json:"ids"`
	K   int      `json:"k,omitempty"`
}

// Validate trims ids, fills the default size and caps it at maxK.
func (r *ItemsRequest) Validate(maxK int) error {
	r.IDs = CleanIDs(r.IDs)
	if len(r.IDs) == 0 {
		return ErrEmptyQuery
	}
	r.K = clampK(r.K, DefaultKItems, maxK)
	return nil
}

// ItemsResponse carries items ranked for a champion query.
type ItemsResponse struct {
	Query     []string `json:"query"`
	Items     []string `json:"items"`
	Short     bool     `json:"short,omitempty"`
	QueryTime int64    `json:"query_time_ms"`
}

// SplitNames splits user input such as "Teemo, Jarvan IV" into trimmed names.
func SplitNames(s string) []string {
	return CleanIDs(strings.Split(s, ","))
}

// CleanIDs trims surrounding whitespace and drops blank entries. Case is preserved.
func CleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func clampK(k, def, maxK int) int {
	if k <= 0 {
		k = def
	}
	if maxK > 0 && k > maxK {
		k = maxK
	}
	return k
}
