package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/models"
)

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat uses in-process brute-force search. Default.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeFAISS uses a FAISS flat index. Requires the FAISS C library and -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
	// IndexTypeQdrant stores the vectors in a Qdrant collection and queries it exactly.
	IndexTypeQdrant IndexType = "qdrant"
)

// Options carries backend-specific settings for Build.
type Options struct {
	Qdrant QdrantOptions
	Logger *zap.Logger
}

// Build creates an index of the given type over src.
// Supported types: "flat" (default, also "memory"), "faiss", "qdrant".
func Build(ctx context.Context, indexType string, src Source, metric models.Metric, opts Options) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "memory", "":
		return NewFlatIndex(src, metric)
	case IndexTypeFAISS:
		return NewFAISSIndex(src, metric)
	case IndexTypeQdrant:
		return NewQdrantIndex(ctx, src, metric, opts.Qdrant, opts.Logger)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, faiss, qdrant)", indexType)
	}
}

// IsFAISSAvailable returns true if FAISS support is compiled in.
func IsFAISSAvailable() bool {
	return faissCompiled
}
