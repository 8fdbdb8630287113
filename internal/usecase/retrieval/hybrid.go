package retrieval

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/usecase/fusion"
)

// Hit is one fused search result hydrated with its catalog title.
// Title is empty when the document vanished between indexing and hydration.
type Hit struct {
	ID      string
	Title   string
	Score   float64
	Sources []candidate.Source
	Rank    int
}

// SearchOutcome is a fused hybrid ranking without generation.
type SearchOutcome struct {
	Hits     []Hit
	Degraded bool
}

// Search runs hybrid retrieval end to end: both branches, fusion, title
// hydration. This is the generation-free sibling of the answer pipeline.
func (s *Service) Search(ctx context.Context, req *request.Request) (SearchOutcome, error) {
	out, err := s.Retrieve(ctx, req.Query(), req.TopKLexical(), req.TopKVector())
	if err != nil {
		return SearchOutcome{}, err
	}

	fuser, err := fusion.New(fusion.Config{
		Strategy:      req.Strategy(),
		WeightLexical: req.WeightLexical(),
		WeightVector:  req.WeightVector(),
		TopK:          req.TopKFused(),
	})
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("configure fusion: %w", err)
	}

	results, err := fuser.Fuse(out.Lexical, out.Vector)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("fuse candidates: %w", err)
	}
	if len(results) == 0 {
		return SearchOutcome{Degraded: out.Degraded}, nil
	}

	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].ID()
	}

	docs, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("hydrate titles: %w", err)
	}
	titles := make(map[string]string, len(docs))
	for i := range docs {
		titles[docs[i].ID()] = docs[i].Title()
	}

	hits := make([]Hit, len(results))
	for i := range results {
		r := &results[i]
		hits[i] = Hit{
			ID:      r.ID(),
			Title:   titles[r.ID()],
			Score:   r.Score(),
			Sources: r.Sources(),
			Rank:    r.Rank(),
		}
	}

	return SearchOutcome{Hits: hits, Degraded: out.Degraded}, nil
}
