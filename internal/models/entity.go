// Package models defines core data structures for entities, recommendation requests, and errors.
package models

import (
	"fmt"
	"strings"
)

// Category identifies an entity id space. Each category has its own store and index.
type Category string

const (
	// CategoryChampions holds playable characters. Records carry a cost.
	CategoryChampions Category = "champions"
	// CategoryItems holds equipment.
	CategoryItems Category = "items"
)

// Categories lists every known category in a stable order.
var Categories = []Category{CategoryChampions, CategoryItems}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryChampions, "champion":
		return CategoryChampions, nil
	case CategoryItems, "item":
		return CategoryItems, nil
	default:
		return "", fmt.Errorf("unknown category: %q (supported: champions, items)", s)
	}
}

// Metric is the distance function an index is built with.
type Metric string

const (
	// MetricL2 ranks by ascending Euclidean distance.
	MetricL2 Metric = "l2"
	// MetricInnerProduct ranks by descending inner product score.
	MetricInnerProduct Metric = "inner_product"
)

// ParseMetric resolves a metric name. Empty defaults to L2.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l2", "euclidean":
		return MetricL2, nil
	case "inner_product", "ip", "dot":
		return MetricInnerProduct, nil
	default:
		return "", fmt.Errorf("unknown metric: %q (supported: l2, inner_product)", s)
	}
}

// Closer reports whether distance a ranks strictly before distance b under m.
func (m Metric) Closer(a, b float32) bool {
	if m == MetricInnerProduct {
		return a > b
	}
	return a < b
}

// Attributes is the fixed per-entity attribute schema, resolved when a snapshot is loaded.
type Attributes struct {
	Cost    int  `json:"cost,omitempty"`
	HasCost bool `json:"-"`
}

// EntityRecord is one entity with its embedding.
type EntityRecord struct {
	ID          string     `json:"id"`
	Embedding   []float32  `json:"-"`
	Attributes  Attributes `json:"attributes"`
	Description string     `json:"description,omitempty"`
}

// SortKey names an attribute usable for secondary ordering.
type SortKey string

// SortByCost orders candidates by Attributes.Cost.
const SortByCost SortKey = "cost"

// SortOrder is the direction of a secondary sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// SortPolicy is a secondary ordering applied after retrieval and before truncation.
type SortPolicy struct {
	Key   SortKey
	Order SortOrder
}

// CostAscending is the policy used for the cost-ordered related list.
var CostAscending = &SortPolicy{Key: SortByCost, Order: Ascending}

// Schema records which optional attributes every record of a store carries.
type Schema struct {
	Cost bool
}

// Supports reports whether key can be sorted on for a store with this schema.
func (s Schema) Supports(key SortKey) bool {
	switch key {
	case SortByCost:
		return s.Cost
	default:
		return false
	}
}
