package chi

import (
	"context"

	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/product"
	answeruc "github.com/kailas-cloud/answerdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/answerdex/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// AnswerService runs the full question-answering cycle.
type AnswerService interface {
	Answer(ctx context.Context, req *request.Request) (answeruc.Result, error)
}

// SearchService runs hybrid retrieval without generation.
type SearchService interface {
	Search(ctx context.Context, req *request.Request) (retrievaluc.SearchOutcome, error)
}

// DocumentReader loads a single catalog document.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
