package retrieval

import (
	"context"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
)

// Searcher defines the index contract for the two retrieval branches.
type Searcher interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]candidate.Candidate, error)
	SearchVector(ctx context.Context, vector []float32, limit int) ([]candidate.Candidate, error)
}

// Embedder vectorizes query text for the vector branch.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// CatalogReader hydrates fused rankings with catalog fields.
type CatalogReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}
