package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/metrics"
)

// Service runs the lexical and vector retrieval branches in parallel.
type Service struct {
	searcher Searcher
	embedder Embedder
	catalog  CatalogReader
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(searcher Searcher, embedder Embedder, catalog CatalogReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{searcher: searcher, embedder: embedder, catalog: catalog, logger: logger}
}

// Outcome carries both settled retrieval branches.
// When exactly one branch failed the outcome is degraded and the candidate
// lists hold only the surviving source.
type Outcome struct {
	Lexical      []candidate.Candidate
	Vector       []candidate.Candidate
	Degraded     bool
	FailedSource candidate.Source
}

// branch is one retriever's settled result.
type branch struct {
	cands []candidate.Candidate
	err   error
}

// Retrieve runs both branches concurrently and waits for both to settle.
// The vector branch embeds the query first; embedding errors wrap
// domain.ErrEmbeddingFailure and count as a vector-branch failure. One failed
// branch degrades the outcome; both failed branches surface
// domain.ErrRetrievalUnavailable joined with both causes.
func (s *Service) Retrieve(
	ctx context.Context, query string, topKLexical, topKVector int,
) (Outcome, error) {
	lexCh := make(chan branch, 1)
	vecCh := make(chan branch, 1)

	go func() {
		cands, err := s.searcher.SearchLexical(ctx, query, topKLexical)
		lexCh <- branch{cands: cands, err: err}
	}()

	go func() {
		emb, err := s.embedder.Embed(ctx, query)
		if err != nil {
			vecCh <- branch{err: fmt.Errorf("vectorize query: %w: %w", domain.ErrEmbeddingFailure, err)}
			return
		}
		domain.UsageFromContext(ctx).AddEmbeddingTokens(emb.TotalTokens)

		cands, err := s.searcher.SearchVector(ctx, emb.Embedding, topKVector)
		vecCh <- branch{cands: cands, err: err}
	}()

	lex := <-lexCh
	vec := <-vecCh

	switch {
	case lex.err != nil && vec.err != nil:
		return Outcome{}, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, errors.Join(lex.err, vec.err))

	case lex.err != nil:
		s.logger.Warn("Failed to retrieve lexical candidates, continuing vector-only",
			zap.Error(lex.err),
		)
		metrics.PipelineDegradedTotal.WithLabelValues(string(candidate.Lexical)).Inc()
		return Outcome{Vector: vec.cands, Degraded: true, FailedSource: candidate.Lexical}, nil

	case vec.err != nil:
		s.logger.Warn("Failed to retrieve vector candidates, continuing lexical-only",
			zap.Error(vec.err),
		)
		metrics.PipelineDegradedTotal.WithLabelValues(string(candidate.Vector)).Inc()
		return Outcome{Lexical: lex.cands, Degraded: true, FailedSource: candidate.Vector}, nil
	}

	return Outcome{Lexical: lex.cands, Vector: vec.cands}, nil
}

// Empty reports whether neither branch produced a candidate.
func (o *Outcome) Empty() bool {
	return len(o.Lexical) == 0 && len(o.Vector) == 0
}
