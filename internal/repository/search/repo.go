package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/answerdex/internal/db"
	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo runs both retrieval arms against the catalog index.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a search repository. keyPrefix must match the catalog layout.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "answerdex:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// SearchLexical runs BM25 keyword retrieval over the combined content field.
// Candidates come back in descending BM25 score order.
func (r *Repo) SearchLexical(ctx context.Context, query string, limit int) ([]candidate.Candidate, error) {
	q := &db.TextQuery{
		IndexName: r.indexName(),
		Query:     query,
		TopK:      limit,
		// Only key and score are consumed; RETURN keeps the vector blob out of the reply.
		ReturnFields: []string{"title"},
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search bm25: %w: %w", domain.ErrRetrievalUnavailable, err)
	}

	return r.toCandidates(sr, candidate.Lexical), nil
}

// SearchVector runs KNN retrieval with the query embedding.
// Candidates come back nearest-first with cosine similarity scores.
func (r *Repo) SearchVector(ctx context.Context, vector []float32, limit int) ([]candidate.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{"__vector_score"},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w: %w", domain.ErrRetrievalUnavailable, err)
	}

	return r.toCandidates(sr, candidate.Vector), nil
}

// toCandidates converts db hits into candidates, preserving rank order.
func (r *Repo) toCandidates(sr *db.SearchResult, source candidate.Source) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := r.docPrefix()
	candidates := make([]candidate.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, prefix)
		candidates = append(candidates, candidate.New(docID, entry.Score, source))
	}
	return candidates
}

func (r *Repo) indexName() string {
	return fmt.Sprintf("%sdoc:idx", r.keyPrefix)
}

func (r *Repo) docPrefix() string {
	return fmt.Sprintf("%sdoc:", r.keyPrefix)
}
