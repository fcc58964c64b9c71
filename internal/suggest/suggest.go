// Package suggest offers "did you mean" candidates for entity names that do not resolve.
// Names are held in in-memory Bleve indexes, one per category, and matched with fuzzy and
// prefix queries; hits are then re-ranked by edit distance to the input.
package suggest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/synergy/internal/models"
	"github.com/hyperjump/synergy/pkg/utils"
)

const nameField = "name"

type nameDoc struct {
	Name string `json:"name"`
}

// Suggester holds one name index per category.
type Suggester struct {
	mu        sync.RWMutex
	indexes   map[models.Category]bleve.Index
	max       int
	fuzziness int
	logger    *zap.Logger
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithMaxSuggestions sets how many names Suggest returns at most.
func WithMaxSuggestions(n int) Option {
	return func(s *Suggester) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithFuzziness sets the maximum edit distance per term (1 or 2).
func WithFuzziness(f int) Option {
	return func(s *Suggester) {
		if f > 0 && f <= 2 {
			s.fuzziness = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Suggester) { s.logger = utils.OrNop(l) }
}

// New creates an empty Suggester.
func New(opts ...Option) *Suggester {
	s := &Suggester{
		indexes:   make(map[models.Category]bleve.Index),
		max:       3,
		fuzziness: 2,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func nameMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	field := bleve.NewTextFieldMapping()
	// Letters only, lowercased, no stop words: single-letter names stay searchable.
	field.Analyzer = simple.Name
	doc.AddFieldMappingsAt(nameField, field)
	im.DefaultMapping = doc
	return im
}

// Index replaces the name index of category with ids.
func (s *Suggester) Index(category models.Category, ids []string) error {
	idx, err := bleve.NewMemOnly(nameMapping())
	if err != nil {
		return fmt.Errorf("failed to create name index: %w", err)
	}
	batch := idx.NewBatch()
	for _, id := range ids {
		if err := batch.Index(id, nameDoc{Name: id}); err != nil {
			_ = idx.Close()
			return fmt.Errorf("failed to index name %q: %w", id, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("failed to index names: %w", err)
	}

	s.mu.Lock()
	old := s.indexes[category]
	s.indexes[category] = idx
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	s.logger.Debug("name index built", zap.String("category", string(category)), zap.Int("names", len(ids)))
	return nil
}

// Suggest returns up to the configured number of indexed names close to input, closest
// first. It returns nil when nothing is close or the category has no index.
func (s *Suggester) Suggest(category models.Category, input string) []string {
	terms := strings.FieldsFunc(strings.ToLower(input), func(r rune) bool { return !unicode.IsLetter(r) })
	if len(terms) == 0 {
		return nil
	}
	s.mu.RLock()
	idx := s.indexes[category]
	s.mu.RUnlock()
	if idx == nil {
		return nil
	}

	queries := make([]blevequery.Query, 0, len(terms)*2)
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetField(nameField)
		fq.SetFuzziness(s.fuzziness)
		queries = append(queries, fq)
		pq := bleve.NewPrefixQuery(term)
		pq.SetField(nameField)
		queries = append(queries, pq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(queries...))
	req.Size = s.max * 4
	res, err := idx.Search(req)
	if err != nil {
		s.logger.Warn("name search failed", zap.String("category", string(category)), zap.Error(err))
		return nil
	}

	type candidate struct {
		name  string
		dist  int
		score float64
	}
	cands := make([]candidate, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.ID == input {
			continue
		}
		cands = append(cands, candidate{name: hit.ID, dist: editDistance(input, hit.ID), score: hit.Score})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].dist != cands[j].dist {
			return cands[i].dist < cands[j].dist
		}
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].name < cands[j].name
	})
	if len(cands) > s.max {
		cands = cands[:s.max]
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

// Close releases every name index.
func (s *Suggester) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for category, idx := range s.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.indexes, category)
	}
	return firstErr
}
