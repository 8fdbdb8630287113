package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	"github.com/kailas-cloud/answerdex/internal/domain/search/candidate"
	answeruc "github.com/kailas-cloud/answerdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/answerdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// --- Mocks ---

type mockAnswer struct {
	answerFn func(ctx context.Context, req *request.Request) (answeruc.Result, error)
	requests []*request.Request
}

func (m *mockAnswer) Answer(ctx context.Context, req *request.Request) (answeruc.Result, error) {
	m.requests = append(m.requests, req)
	if m.answerFn != nil {
		return m.answerFn(ctx, req)
	}
	return answeruc.Result{
		Answer:          "Generated answer",
		UsedDocumentIDs: []string{"d1"},
		Grounded:        true,
	}, nil
}

type mockSearch struct {
	searchFn func(ctx context.Context, req *request.Request) (retrievaluc.SearchOutcome, error)
	requests []*request.Request
}

func (m *mockSearch) Search(ctx context.Context, req *request.Request) (retrievaluc.SearchOutcome, error) {
	m.requests = append(m.requests, req)
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return retrievaluc.SearchOutcome{
		Hits: []retrievaluc.Hit{{
			ID:      "d1",
			Title:   "Title d1",
			Score:   1.0,
			Sources: []candidate.Source{candidate.Lexical},
			Rank:    1,
		}},
	}, nil
}

type mockDocuments struct {
	getByIDFn func(ctx context.Context, id string) (product.Product, error)
}

func (m *mockDocuments) GetByID(ctx context.Context, id string) (product.Product, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return product.New(id, "Title "+id, "Description "+id, nil)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	if m.report.Status == "" {
		return healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}
	}
	return m.report
}

// --- Helpers ---

// newTestServer assembles a routed handler over the given mocks. Nil mocks
// get defaults.
func newTestServer(
	ma *mockAnswer, ms *mockSearch, md *mockDocuments, mh *mockHealth,
) (http.Handler, *mockAnswer, *mockSearch) {
	if ma == nil {
		ma = &mockAnswer{}
	}
	if ms == nil {
		ms = &mockSearch{}
	}
	if md == nil {
		md = &mockDocuments{}
	}
	if mh == nil {
		mh = &mockHealth{}
	}
	s := NewServer(ma, ms, md, mh, zap.NewNop())
	r := chi.NewRouter()
	s.Register(r)
	return r, ma, ms
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}
