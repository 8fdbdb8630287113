package answer

import (
	"context"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// Retriever runs both retrieval branches and settles them.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topKLexical, topKVector int) (retrieval.Outcome, error)
}

// CatalogReader loads the documents behind a fused ranking.
type CatalogReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)
}

// Generator produces the grounded answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
