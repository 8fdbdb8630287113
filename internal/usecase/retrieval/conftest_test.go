package retrieval

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
)

// mockSearcher is a hand-rolled index fake with overridable behaviors.
type mockSearcher struct {
	searchLexicalFn func(ctx context.Context, query string, limit int) ([]candidate.Candidate, error)
	searchVectorFn  func(ctx context.Context, vector []float32, limit int) ([]candidate.Candidate, error)
}

func (m *mockSearcher) SearchLexical(
	ctx context.Context, query string, limit int,
) ([]candidate.Candidate, error) {
	if m.searchLexicalFn != nil {
		return m.searchLexicalFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockSearcher) SearchVector(
	ctx context.Context, vector []float32, limit int,
) ([]candidate.Candidate, error) {
	if m.searchVectorFn != nil {
		return m.searchVectorFn(ctx, vector, limit)
	}
	return nil, nil
}

// mockEmbedder vectorizes deterministically unless overridden.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3, 0.4},
		TotalTokens: 3,
	}, nil
}

// mockCatalog serves title hydration.
type mockCatalog struct {
	getByIDsFn func(ctx context.Context, ids []string) ([]product.Product, error)
}

func (m *mockCatalog) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func newTestService(ms *mockSearcher, me *mockEmbedder, mc *mockCatalog) *Service {
	if ms == nil {
		ms = &mockSearcher{}
	}
	if me == nil {
		me = &mockEmbedder{}
	}
	if mc == nil {
		mc = &mockCatalog{}
	}
	return New(ms, me, mc, zap.NewNop())
}

func lex(id string, score float64) candidate.Candidate {
	return candidate.New(id, score, candidate.Lexical)
}

func vec(id string, score float64) candidate.Candidate {
	return candidate.New(id, score, candidate.Vector)
}

func testProduct(t *testing.T, id, title string) product.Product {
	t.Helper()
	p, err := product.New(id, title, "test description", nil)
	if err != nil {
		t.Fatalf("test product: %v", err)
	}
	return p
}
