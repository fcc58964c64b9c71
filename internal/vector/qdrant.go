package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/pkg/utils"
)

const qdrantUpsertBatch = 256

// QdrantOptions locates the Qdrant collection backing an index.
type QdrantOptions struct {
	// URL is the HTTP address, e.g. "http://localhost:6333". The gRPC port is derived from it.
	URL        string
	Collection string
}

// QdrantIndex keeps the vectors in a Qdrant collection. Point ids are store positions, the
// entity id travels in the payload.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	metric     models.Metric
	dim        int
	ids        []string
	logger     *zap.Logger
}

// NewQdrantIndex (re)creates the collection and uploads every vector of src.
func NewQdrantIndex(ctx context.Context, src Source, metric models.Metric, opts QdrantOptions, logger *zap.Logger) (*QdrantIndex, error) {
	logger = utils.OrNop(logger)
	if src.Dimension() <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	host, port, err := qdrantAddress(opts.URL)
	if err != nil {
		return nil, err
	}
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	idx := &QdrantIndex{
		client:     client,
		collection: opts.Collection,
		metric:     metric,
		dim:        src.Dimension(),
		ids:        make([]string, src.Len()),
		logger:     logger.With(zap.String("collection", opts.Collection)),
	}
	if err := idx.recreate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := idx.upload(ctx, src); err != nil {
		_ = client.Close()
		return nil, err
	}
	idx.logger.Info("qdrant index ready", zap.Int("points", len(idx.ids)), zap.Int("dimensions", idx.dim))
	return idx, nil
}

// qdrantAddress turns an HTTP URL into the gRPC host and port the client dials.
func qdrantAddress(raw string) (string, int, error) {
	if raw == "" {
		return "localhost", 6334, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := 6334
	if u.Port() != "" {
		httpPort, err := strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, fmt.Errorf("invalid Qdrant port %q", u.Port())
		}
		port = httpPort + 1
	}
	return host, port, nil
}

func (q *QdrantIndex) recreate(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		q.logger.Debug("dropping existing collection")
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
	}
	distance := qdrant.Distance_Euclid
	if q.metric == models.MetricInnerProduct {
		distance = qdrant.Distance_Dot
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dim),
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (q *QdrantIndex) upload(ctx context.Context, src Source) error {
	points := make([]*qdrant.PointStruct, 0, qdrantUpsertBatch)
	flush := func() error {
		if len(points) == 0 {
			return nil
		}
		_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: q.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert points: %w", err)
		}
		points = points[:0]
		return nil
	}
	for pos := 0; pos < src.Len(); pos++ {
		vec := src.Vector(pos)
		if len(vec) != q.dim {
			return &models.DimensionMismatchError{Got: len(vec), Want: q.dim}
		}
		q.ids[pos] = src.ID(pos)
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(pos)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(map[string]any{"entity_id": q.ids[pos]}),
		})
		if len(points) == qdrantUpsertBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Query runs an exact search over the whole collection and re-sorts locally, so that the
// cut at k respects position order among equal distances.
func (q *QdrantIndex) Query(ctx context.Context, vec []float32, k int) ([]Neighbor, error) {
	if err := checkQuery(vec, q.dim); err != nil {
		return nil, err
	}
	k = clampK(k, len(q.ids))
	if k == 0 {
		return nil, nil
	}
	limit := uint64(len(q.ids))
	scored, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		Params:         &qdrant.SearchParams{Exact: qdrant.PtrOf(true)},
	})
	if err != nil {
		q.logger.Error("qdrant query failed", zap.Error(err))
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	all := make([]Neighbor, 0, len(scored))
	for _, p := range scored {
		if p.Id == nil {
			continue
		}
		pos := int(p.Id.GetNum())
		if pos < 0 || pos >= len(q.ids) {
			continue
		}
		all = append(all, Neighbor{ID: q.ids[pos], Position: pos, Distance: p.Score})
	}
	sortNeighbors(all, q.metric)
	if k > len(all) {
		k = len(all)
	}
	return all[:k:k], nil
}

// Metric returns the metric the index ranks by.
func (q *QdrantIndex) Metric() models.Metric { return q.metric }

// Dimension returns the vector dimension.
func (q *QdrantIndex) Dimension() int { return q.dim }

// Size returns the number of points uploaded.
func (q *QdrantIndex) Size() int { return len(q.ids) }

// Type returns the index type identifier.
func (q *QdrantIndex) Type() string { return string(IndexTypeQdrant) }

// Save is a no-op: Qdrant persists the collection itself.
func (q *QdrantIndex) Save(path string) error { return nil }

// Close releases the gRPC connection. The collection is left in place.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
