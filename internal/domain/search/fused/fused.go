package fused

import "github.com/kailas-cloud/answerdex/internal/domain/search/candidate"

// Result is one entry of a fused ranking.
// Invariants (enforced by the fusion engine): fused scores are monotonically
// non-increasing in rank order and each document ID appears at most once.
type Result struct {
	id      string
	score   float64
	sources []candidate.Source
	rank    int
}

// New creates a fused result. Rank is 1-based.
func New(id string, score float64, sources []candidate.Source, rank int) Result {
	return Result{id: id, score: score, sources: sources, rank: rank}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the fused relevance score.
func (r *Result) Score() float64 { return r.score }

// Sources returns the retrievers that contributed to this result.
func (r *Result) Sources() []candidate.Source { return r.sources }

// Rank returns the 1-based position in the fused ranking.
func (r *Result) Rank() int { return r.rank }

// FromBoth reports whether both retrievers surfaced this document.
func (r *Result) FromBoth() bool { return len(r.sources) > 1 }
