package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/pkg/utils"
)

// Suggester proposes known ids close to a misspelled one.
type Suggester interface {
	Index(category models.Category, ids []string) error
	Suggest(category models.Category, id string) []string
}

// CategoryStatus summarizes one category for status output.
type CategoryStatus struct {
	Category   models.Category `json:"category"`
	Available  bool            `json:"available"`
	Error      string          `json:"error,omitempty"`
	Entities   int             `json:"entities"`
	Dimension  int             `json:"dimension"`
	Metric     models.Metric   `json:"metric,omitempty"`
	IndexType  string          `json:"index_type,omitempty"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
	Model      string          `json:"model,omitempty"`
}

// StatusReport is the service-wide status: "ok" when every registered category is
// available, "degraded" otherwise.
type StatusReport struct {
	Status         string           `json:"status"`
	Categories     []CategoryStatus `json:"categories"`
	DiskUsageBytes int64            `json:"disk_usage_bytes,omitempty"`
}

type entry struct {
	pair Pair
	err  error
}

// Service owns the per-category store and index pairs and answers caller-facing
// recommendation requests. Registration happens during warm-up; afterwards the service is
// read-only and safe for concurrent use.
type Service struct {
	entries   map[models.Category]*entry
	suggester Suggester
	maxK      int
	// default result sizes applied when a request leaves them unset
	kPrimary, kSecondary, kItems int
	logger                       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = utils.OrNop(l) }
}

// WithSuggester enables "did you mean" suggestions on unknown ids.
func WithSuggester(sg Suggester) Option {
	return func(s *Service) { s.suggester = sg }
}

// WithMaxK caps result sizes.
func WithMaxK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.maxK = k
		}
	}
}

// WithDefaultSizes sets the result sizes used when a request leaves them at zero.
// Non-positive values keep the built-in defaults.
func WithDefaultSizes(kPrimary, kSecondary, kItems int) Option {
	return func(s *Service) {
		if kPrimary > 0 {
			s.kPrimary = kPrimary
		}
		if kSecondary > 0 {
			s.kSecondary = kSecondary
		}
		if kItems > 0 {
			s.kItems = kItems
		}
	}
}

// NewService creates an empty service.
func NewService(opts ...Option) *Service {
	s := &Service{
		entries:    make(map[models.Category]*entry),
		maxK:       models.DefaultMaxK,
		kPrimary:   models.DefaultKPrimary,
		kSecondary: models.DefaultKSecondary,
		kItems:     models.DefaultKItems,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes pair available for category.
func (s *Service) Register(category models.Category, pair Pair) {
	s.entries[category] = &entry{pair: pair}
	if s.suggester != nil {
		if err := s.suggester.Index(category, pair.Store.IDs()); err != nil {
			s.logger.Warn("name suggestions disabled", zap.String("category", string(category)), zap.Error(err))
		}
	}
}

// RegisterFailure records that category failed to load. Requests for it fail with
// models.ErrCategoryUnavailable; other categories are unaffected.
func (s *Service) RegisterFailure(category models.Category, err error) {
	s.entries[category] = &entry{err: err}
}

// Warm loads every category in specs. Failures are registered, logged and returned
// joined; the service still serves the categories that loaded.
func (s *Service) Warm(ctx context.Context, specs map[models.Category]PairSpec) error {
	var errs []error
	for _, category := range models.Categories {
		spec, ok := specs[category]
		if !ok {
			continue
		}
		if spec.Source.Category == "" {
			spec.Source.Category = category
		}
		start := time.Now()
		pair, err := LoadPair(ctx, spec, s.logger)
		if err != nil {
			s.logger.Error("category unavailable", zap.String("category", string(category)), zap.Error(err))
			s.RegisterFailure(category, err)
			errs = append(errs, err)
			continue
		}
		s.Register(category, pair)
		s.logger.Debug("warm-up done", zap.String("category", string(category)), zap.Duration("took", time.Since(start)))
	}
	return errors.Join(errs...)
}

// Pair returns the loaded pair for category.
func (s *Service) Pair(category models.Category) (Pair, error) {
	e, ok := s.entries[category]
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s is not configured", models.ErrCategoryUnavailable, category)
	}
	if e.err != nil {
		return Pair{}, fmt.Errorf("%w: %s: %w", models.ErrCategoryUnavailable, category, e.err)
	}
	return e.pair, nil
}

// Related recommends entities of req.Category related to req.IDs, ordered by cost and by
// distance.
func (s *Service) Related(ctx context.Context, req models.RelatedRequest) (*models.RelatedResponse, error) {
	start := time.Now()
	if req.KPrimary <= 0 {
		req.KPrimary = s.kPrimary
	}
	if req.KSecondary <= 0 {
		req.KSecondary = s.kSecondary
	}
	if err := req.Validate(s.maxK); err != nil {
		return nil, err
	}
	pair, err := s.Pair(req.Category)
	if err != nil {
		return nil, err
	}
	rel, err := RecommendRelated(ctx, pair, req.IDs, req.KPrimary, req.KSecondary)
	if err != nil {
		return nil, s.enrich(err)
	}
	resp := &models.RelatedResponse{
		Category:        req.Category,
		Query:           req.IDs,
		ByCost:          rel.ByCost.IDs,
		ByDistance:      rel.ByDistance.IDs,
		ShortByCost:     rel.ByCost.Short(),
		ShortByDistance: rel.ByDistance.Short(),
		QueryTime:       time.Since(start).Milliseconds(),
	}
	s.logger.Debug("related",
		zap.String("category", string(req.Category)),
		zap.Strings("query", req.IDs),
		zap.Int("by_cost", len(resp.ByCost)),
		zap.Int("by_distance", len(resp.ByDistance)),
	)
	return resp, nil
}

// ItemsFor recommends items for the champions in req.IDs: the champion embeddings are
// averaged and the item index is queried with the result.
func (s *Service) ItemsFor(ctx context.Context, req models.ItemsRequest) (*models.ItemsResponse, error) {
	start := time.Now()
	if req.K <= 0 {
		req.K = s.kItems
	}
	if err := req.Validate(s.maxK); err != nil {
		return nil, err
	}
	champions, err := s.Pair(models.CategoryChampions)
	if err != nil {
		return nil, err
	}
	items, err := s.Pair(models.CategoryItems)
	if err != nil {
		return nil, err
	}
	vec, err := Aggregate(champions.Store, req.IDs)
	if err != nil {
		return nil, s.enrich(err)
	}
	res, err := RecommendCrossCategory(ctx, items, vec, req.K)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("items", zap.Strings("query", req.IDs), zap.Int("items", len(res.IDs)))
	return &models.ItemsResponse{
		Query:     req.IDs,
		Items:     res.IDs,
		Short:     res.Short(),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Entities lists the ids of category in store order.
func (s *Service) Entities(category models.Category) ([]string, error) {
	pair, err := s.Pair(category)
	if err != nil {
		return nil, err
	}
	return pair.Store.IDs(), nil
}

// Status reports every registered category in a stable order.
func (s *Service) Status() []CategoryStatus {
	out := make([]CategoryStatus, 0, len(s.entries))
	for _, category := range models.Categories {
		e, ok := s.entries[category]
		if !ok {
			continue
		}
		st := CategoryStatus{Category: category}
		if e.err != nil {
			st.Error = e.err.Error()
			out = append(out, st)
			continue
		}
		st.Available = true
		st.Entities = e.pair.Store.Len()
		st.Dimension = e.pair.Store.Dimension()
		st.Metric = e.pair.Index.Metric()
		st.IndexType = e.pair.Index.Type()
		st.SnapshotID = e.pair.Store.SnapshotID()
		st.Model = e.pair.Store.Model()
		out = append(out, st)
	}
	return out
}

// Report wraps Status with an overall verdict.
func (s *Service) Report() StatusReport {
	r := StatusReport{Status: "ok", Categories: s.Status()}
	for _, st := range r.Categories {
		if !st.Available {
			r.Status = "degraded"
		}
	}
	return r
}

// Close releases every loaded index.
func (s *Service) Close() error {
	var errs []error
	for _, e := range s.entries {
		if e.pair.Index != nil {
			errs = append(errs, e.pair.Index.Close())
		}
	}
	return errors.Join(errs...)
}

// enrich attaches suggestions to an unknown entity error.
func (s *Service) enrich(err error) error {
	var ue *models.UnknownEntityError
	if s.suggester == nil || !errors.As(err, &ue) {
		return err
	}
	ue.Suggestions = s.suggester.Suggest(ue.Category, ue.ID)
	return err
}
