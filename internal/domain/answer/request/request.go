package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/search/strategy"
)

// Request parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in characters.
	MaxQueryLength = 500
	// DefaultTopKRetrieve is the per-retriever candidate count.
	DefaultTopKRetrieve = 20
	MaxTopKRetrieve     = 100
	// DefaultTopKFused is the fused result count fed into context building.
	DefaultTopKFused = 10
	MaxTopKFused     = 50
	// DefaultMaxRetries bounds the reformulation loop.
	DefaultMaxRetries = 1
	MaxRetriesCeiling = 3
	// DefaultContextBudget is the context block character budget.
	DefaultContextBudget = 4000
	// DefaultWeight is the per-source fusion weight when none is given.
	DefaultWeight = 0.5
)

// Request is a validated answer request.
type Request struct {
	query         string
	strat         strategy.Strategy
	topKLexical   int
	topKVector    int
	topKFused     int
	weightLexical float64
	weightVector  float64
	maxRetries    int
	contextBudget int
}

// New validates and normalizes answer parameters.
// Zero or negative counts select defaults; maxRetries < 0 selects the
// default so that an explicit 0 (no reformulation) stays distinguishable.
// Weights of (0, 0) select equal weighting.
func New(
	query string,
	strat strategy.Strategy,
	topKLexical, topKVector, topKFused int,
	weightLexical, weightVector float64,
	maxRetries, contextBudget int,
) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if strat == "" {
		strat = strategy.Weighted
	}
	if !strat.IsValid() {
		return Request{}, fmt.Errorf("%w: unknown fusion strategy %q", domain.ErrInvalidQuery, strat)
	}
	if weightLexical == 0 && weightVector == 0 {
		weightLexical, weightVector = DefaultWeight, DefaultWeight
	}
	if weightLexical < 0 || weightVector < 0 {
		return Request{}, fmt.Errorf("%w: fusion weights must be non-negative", domain.ErrInvalidQuery)
	}
	if weightLexical+weightVector <= 0 {
		return Request{}, fmt.Errorf("%w: fusion weights must sum to a positive value", domain.ErrInvalidQuery)
	}
	topKLexical = clamp(topKLexical, DefaultTopKRetrieve, MaxTopKRetrieve)
	topKVector = clamp(topKVector, DefaultTopKRetrieve, MaxTopKRetrieve)
	topKFused = clamp(topKFused, DefaultTopKFused, MaxTopKFused)
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if maxRetries > MaxRetriesCeiling {
		maxRetries = MaxRetriesCeiling
	}
	if contextBudget <= 0 {
		contextBudget = DefaultContextBudget
	}

	return Request{
		query:         query,
		strat:         strat,
		topKLexical:   topKLexical,
		topKVector:    topKVector,
		topKFused:     topKFused,
		weightLexical: weightLexical,
		weightVector:  weightVector,
		maxRetries:    maxRetries,
		contextBudget: contextBudget,
	}, nil
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// Query returns the trimmed query text.
func (r *Request) Query() string { return r.query }

// Strategy returns the fusion strategy.
func (r *Request) Strategy() strategy.Strategy { return r.strat }

// TopKLexical returns the lexical retriever candidate count.
func (r *Request) TopKLexical() int { return r.topKLexical }

// TopKVector returns the vector retriever candidate count.
func (r *Request) TopKVector() int { return r.topKVector }

// TopKFused returns the fused result count.
func (r *Request) TopKFused() int { return r.topKFused }

// WeightLexical returns the lexical fusion weight.
func (r *Request) WeightLexical() float64 { return r.weightLexical }

// WeightVector returns the vector fusion weight.
func (r *Request) WeightVector() float64 { return r.weightVector }

// MaxRetries returns the reformulation retry bound.
func (r *Request) MaxRetries() int { return r.maxRetries }

// ContextBudget returns the context block character budget.
func (r *Request) ContextBudget() int { return r.contextBudget }
