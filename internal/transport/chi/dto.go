package chi

import (
	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/search/strategy"
	retrievaluc "github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// answerRequest is the POST /v1/answer body. Optional fields are pointers so
// that an absent value and an explicit zero stay distinguishable.
type answerRequest struct {
	Query         string   `json:"query"`
	Strategy      string   `json:"strategy,omitempty"`
	TopKLexical   *int     `json:"top_k_lexical,omitempty"`
	TopKVector    *int     `json:"top_k_vector,omitempty"`
	TopK          *int     `json:"top_k,omitempty"`
	WeightLexical *float64 `json:"weight_lexical,omitempty"`
	WeightVector  *float64 `json:"weight_vector,omitempty"`
	MaxRetries    *int     `json:"max_retries,omitempty"`
	ContextBudget *int     `json:"context_budget,omitempty"`
}

func (a *answerRequest) toDomain(d Defaults) (request.Request, error) {
	strat := a.Strategy
	if strat == "" {
		strat = d.Strategy
	}
	// Body weights override server defaults as a pair: setting one weight
	// implies zero for the other.
	wl, wv := d.WeightLexical, d.WeightVector
	if a.WeightLexical != nil || a.WeightVector != nil {
		wl, wv = derefFloat(a.WeightLexical), derefFloat(a.WeightVector)
	}
	// max_retries: absent → default, explicit 0 → no reformulation.
	maxRetries := -1
	if a.MaxRetries != nil {
		maxRetries = *a.MaxRetries
	}
	return request.New(
		a.Query,
		strategy.Strategy(strat),
		derefInt(a.TopKLexical),
		derefInt(a.TopKVector),
		derefInt(a.TopK),
		wl,
		wv,
		maxRetries,
		derefInt(a.ContextBudget),
	)
}

type answerResponse struct {
	Answer          string   `json:"answer"`
	UsedDocumentIDs []string `json:"used_document_ids"`
	Degraded        bool     `json:"degraded"`
	Grounded        bool     `json:"grounded"`
}

// searchRequest is the POST /v1/search body. top_k bounds the fused result
// count; retrieval depth per source stays at its default.
type searchRequest struct {
	Query    string `json:"query"`
	Strategy string `json:"strategy,omitempty"`
	TopK     *int   `json:"top_k,omitempty"`
}

func (s *searchRequest) toDomain(d Defaults) (request.Request, error) {
	strat := s.Strategy
	if strat == "" {
		strat = d.Strategy
	}
	return request.New(
		s.Query,
		strategy.Strategy(strat),
		0, 0,
		derefInt(s.TopK),
		d.WeightLexical, d.WeightVector,
		-1, 0,
	)
}

type searchResultItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Score   float64  `json:"score"`
	Sources []string `json:"sources"`
}

type searchResponse struct {
	Results  []searchResultItem `json:"results"`
	Degraded bool               `json:"degraded"`
}

func searchResponseFrom(out retrievaluc.SearchOutcome) searchResponse {
	items := make([]searchResultItem, len(out.Hits))
	for i, h := range out.Hits {
		sources := make([]string, len(h.Sources))
		for j, src := range h.Sources {
			sources[j] = string(src)
		}
		items[i] = searchResultItem{
			ID:      h.ID,
			Title:   h.Title,
			Score:   h.Score,
			Sources: sources,
		}
	}
	return searchResponse{Results: items, Degraded: out.Degraded}
}

type documentResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the JSON error envelope: {"error":{"code","message"}}.
type errorResponse struct {
	Error errorBody `json:"error"`
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
