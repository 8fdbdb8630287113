package fusion

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/domain/search/fused"
	"github.com/kailas-cloud/answerdex/internal/domain/search/strategy"
)

// Fuser merges the two retrieval rankings into a single one.
type Fuser interface {
	Fuse(lexical, vector []candidate.Candidate) ([]fused.Result, error)
}

// Config holds fusion parameters for one cycle.
type Config struct {
	Strategy      strategy.Strategy
	WeightLexical float64
	WeightVector  float64
	TopK          int
}

// Validate checks weights, topK and strategy.
func (c *Config) Validate() error {
	if c.WeightLexical < 0 || c.WeightVector < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got lexical=%v vector=%v",
			c.WeightLexical, c.WeightVector)
	}
	if c.WeightLexical+c.WeightVector <= 0 {
		return fmt.Errorf("fusion weights must sum to a positive value")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("fusion topK must be positive, got %d", c.TopK)
	}
	if c.Strategy != "" && !c.Strategy.IsValid() {
		return fmt.Errorf("unsupported fusion strategy: %s", c.Strategy)
	}
	return nil
}

// New selects the fuser for the configured strategy.
// Empty strategy defaults to weighted.
func New(cfg Config) (Fuser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strategy == strategy.RRF {
		return NewRRF(cfg), nil
	}
	return NewWeighted(cfg), nil
}

// entry accumulates one document's contributions before ranking.
type entry struct {
	id      string
	score   float64
	sources []candidate.Source
}

// merger collects weighted contributions per document ID in first-seen order.
type merger struct {
	byID  map[string]*entry
	order []*entry
}

func newMerger(capacity int) *merger {
	return &merger{
		byID:  make(map[string]*entry, capacity),
		order: make([]*entry, 0, capacity),
	}
}

func (m *merger) add(id string, source candidate.Source, score float64) {
	e, ok := m.byID[id]
	if !ok {
		e = &entry{id: id}
		m.byID[id] = e
		m.order = append(m.order, e)
	}
	e.score += score
	e.sources = append(e.sources, source)
}

// checkNoDuplicates enforces the retriever contract: a source list carries
// each document at most once.
func checkNoDuplicates(cands []candidate.Candidate, source candidate.Source) error {
	seen := make(map[string]struct{}, len(cands))
	for i := range cands {
		id := cands[i].ID()
		if _, ok := seen[id]; ok {
			return domain.NewFusionInputError(string(source), id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// rank sorts entries descending by fused score, truncates to topK and
// assigns 1-based ranks. Ties: presence in both lists wins over single-list
// presence, then document ID ascending. The full ordering is deterministic.
func rank(entries []*entry, topK int) []fused.Result {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		bi, bj := len(entries[i].sources) > 1, len(entries[j].sources) > 1
		if bi != bj {
			return bi
		}
		return entries[i].id < entries[j].id
	})

	if len(entries) > topK {
		entries = entries[:topK]
	}

	results := make([]fused.Result, 0, len(entries))
	for i, e := range entries {
		results = append(results, fused.New(e.id, e.score, e.sources, i+1))
	}
	return results
}
