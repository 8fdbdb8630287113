package answer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/metrics"
)

// Service runs the answer pipeline: retrieve, fuse, build context, generate.
type Service struct {
	retriever Retriever
	catalog   CatalogReader
	generator Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates the answer service. timeout bounds cycles whose caller
// supplied no deadline of their own; 0 disables the fallback.
func New(
	retriever Retriever, catalog CatalogReader, generator Generator,
	timeout time.Duration, logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		retriever: retriever,
		catalog:   catalog,
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Result is the outcome of one answer cycle.
// Grounded=false means the fixed refusal was returned because no catalog
// document survived retrieval; it is not an error.
type Result struct {
	Answer          string
	UsedDocumentIDs []string
	Degraded        bool
	Grounded        bool
}

// Answer executes one pipeline cycle for a validated request.
// Every cycle terminates in bounded time with a Result or one structured
// error; the step budget is a safety net against transition bugs, the
// reformulation back-edge is bounded by req.MaxRetries().
func (s *Service) Answer(ctx context.Context, req *request.Request) (Result, error) {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	st := &pipelineState{svc: s, req: req, query: req.Query()}

	if err := s.run(ctx, st, 2*req.MaxRetries()+8); err != nil {
		metrics.PipelineCyclesTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	res := Result{
		Answer:          st.answer,
		UsedDocumentIDs: st.block.IncludedIDs,
		Degraded:        st.outcome.Degraded,
		Grounded:        st.grounded,
	}
	metrics.PipelineCyclesTotal.WithLabelValues(cycleOutcome(res)).Inc()

	s.logger.Debug("Answer cycle completed",
		zap.Bool("grounded", res.Grounded),
		zap.Bool("degraded", res.Degraded),
		zap.Int("retries", st.retries),
		zap.Int("context_docs", len(res.UsedDocumentIDs)),
	)

	return res, nil
}

// run drives the transition loop from START to END within the step budget.
func (s *Service) run(ctx context.Context, st *pipelineState, budget int) error {
	cur := stageStart
	for steps := 0; cur != stageEnd; steps++ {
		if steps >= budget {
			return fmt.Errorf("pipeline exceeded %d steps, aborted at stage %q", budget, cur)
		}

		start := time.Now()
		next, err := st.step(ctx, cur)
		metrics.PipelineStageDuration.WithLabelValues(string(cur)).Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

func cycleOutcome(res Result) string {
	switch {
	case !res.Grounded:
		return "refused"
	case res.Degraded:
		return "degraded"
	default:
		return "answered"
	}
}
