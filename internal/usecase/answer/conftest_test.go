package answer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	"github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// mockRetriever records every retrieval query so tests can assert the
// reformulation trail.
type mockRetriever struct {
	retrieveFn func(ctx context.Context, query string, topKLexical, topKVector int) (retrieval.Outcome, error)
	calls      int
	queries    []string
}

func (m *mockRetriever) Retrieve(
	ctx context.Context, query string, topKLexical, topKVector int,
) (retrieval.Outcome, error) {
	m.calls++
	m.queries = append(m.queries, query)
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, query, topKLexical, topKVector)
	}
	return retrieval.Outcome{}, nil
}

// mockCatalog serves a product for every requested ID unless overridden.
type mockCatalog struct {
	getByIDsFn func(ctx context.Context, ids []string) ([]product.Product, error)
}

func (m *mockCatalog) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	docs := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		p, err := product.New(id, "Title "+id, "Description "+id, nil)
		if err != nil {
			return nil, err
		}
		docs = append(docs, p)
	}
	return docs, nil
}

// mockGenerator captures prompts for assertion.
type mockGenerator struct {
	generateFn func(ctx context.Context, prompt string) (domain.GenerationResult, error)
	calls      int
	prompts    []string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return domain.GenerationResult{Text: "Generated answer", Model: "test-model", TotalTokens: 5}, nil
}

func newTestService(mr *mockRetriever, mc *mockCatalog, mg *mockGenerator) (*Service, *mockRetriever, *mockGenerator) {
	if mr == nil {
		mr = &mockRetriever{}
	}
	if mc == nil {
		mc = &mockCatalog{}
	}
	if mg == nil {
		mg = &mockGenerator{}
	}
	return New(mr, mc, mg, 0, zap.NewNop()), mr, mg
}

func newTimedService(mr *mockRetriever, mg *mockGenerator, timeout time.Duration) *Service {
	if mr == nil {
		mr = &mockRetriever{}
	}
	if mg == nil {
		mg = &mockGenerator{}
	}
	return New(mr, &mockCatalog{}, mg, timeout, zap.NewNop())
}

// testRequest builds a request with defaults; maxRetries -1 selects the default.
func testRequest(t *testing.T, query string, maxRetries int) *request.Request {
	t.Helper()
	req, err := request.New(query, "", 0, 0, 0, 0, 0, maxRetries, 0)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return &req
}

func lexOutcome(ids ...string) retrieval.Outcome {
	cands := make([]candidate.Candidate, len(ids))
	for i, id := range ids {
		cands[i] = candidate.New(id, 0.7, candidate.Lexical)
	}
	return retrieval.Outcome{Lexical: cands}
}
