package answer

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/answerdex/internal/domain"
	"github.com/kailas-cloud/answerdex/internal/domain/answer/request"
	"github.com/kailas-cloud/answerdex/internal/domain/search/fused"
	"github.com/kailas-cloud/answerdex/internal/metrics"
	"github.com/kailas-cloud/answerdex/internal/usecase/contextbuild"
	"github.com/kailas-cloud/answerdex/internal/usecase/fusion"
	"github.com/kailas-cloud/answerdex/internal/usecase/retrieval"
)

// stage is a pipeline graph node.
type stage string

const (
	stageStart        stage = "start"
	stageRetrieve     stage = "retrieve"
	stageReformulate  stage = "reformulate"
	stageFuse         stage = "fuse"
	stageBuildContext stage = "build_context"
	stageGenerate     stage = "generate"
	stageEnd          stage = "end"
)

// pipelineState is the working set of one answer cycle. Strictly cycle-local;
// each node writes only the fields it owns and leaves the rest intact.
type pipelineState struct {
	svc *Service
	req *request.Request

	// query is the active retrieval query; reformulation rewrites it.
	query   string
	retries int

	outcome retrieval.Outcome
	results []fused.Result
	block   contextbuild.Block

	answer   string
	grounded bool
}

// step advances the pipeline by one transition. The switch is exhaustive
// over all stages; reaching an unknown stage is an internal error, never a
// silent stop.
func (st *pipelineState) step(ctx context.Context, cur stage) (stage, error) {
	switch cur {
	case stageStart:
		return stageRetrieve, nil
	case stageRetrieve:
		return st.retrieve(ctx)
	case stageReformulate:
		return st.reformulate()
	case stageFuse:
		return st.fuse()
	case stageBuildContext:
		return st.buildContext(ctx)
	case stageGenerate:
		return st.generate(ctx)
	case stageEnd:
		return stageEnd, fmt.Errorf("pipeline stepped past terminal stage")
	default:
		return stageEnd, fmt.Errorf("unknown pipeline stage %q", cur)
	}
}

// retrieve settles both branches. The back-edge to REFORMULATE fires only
// while the retry budget lasts; an exhausted budget proceeds through FUSE
// and BUILD_CONTEXT with empty inputs so GENERATE can refuse explicitly.
func (st *pipelineState) retrieve(ctx context.Context) (stage, error) {
	out, err := st.svc.retriever.Retrieve(ctx, st.query, st.req.TopKLexical(), st.req.TopKVector())
	if err != nil {
		return stageEnd, err
	}
	st.outcome = out

	if out.Empty() && st.retries < st.req.MaxRetries() {
		return stageReformulate, nil
	}
	return stageFuse, nil
}

// reformulate rewrites the query and re-enters RETRIEVE. When stripping
// changes nothing a retry is pointless and the pipeline falls through to
// FUSE with the empty outcome.
func (st *pipelineState) reformulate() (stage, error) {
	st.retries++

	rewritten := reformulate(st.query)
	if rewritten == st.query {
		return stageFuse, nil
	}

	st.query = rewritten
	metrics.PipelineReformulationsTotal.Inc()
	return stageRetrieve, nil
}

func (st *pipelineState) fuse() (stage, error) {
	fuser, err := fusion.New(fusion.Config{
		Strategy:      st.req.Strategy(),
		WeightLexical: st.req.WeightLexical(),
		WeightVector:  st.req.WeightVector(),
		TopK:          st.req.TopKFused(),
	})
	if err != nil {
		return stageEnd, fmt.Errorf("configure fusion: %w", err)
	}

	results, err := fuser.Fuse(st.outcome.Lexical, st.outcome.Vector)
	if err != nil {
		return stageEnd, fmt.Errorf("fuse candidates: %w", err)
	}
	st.results = results
	return stageBuildContext, nil
}

func (st *pipelineState) buildContext(ctx context.Context) (stage, error) {
	if len(st.results) == 0 {
		return stageGenerate, nil
	}

	ids := make([]string, len(st.results))
	for i := range st.results {
		ids[i] = st.results[i].ID()
	}

	docs, err := st.svc.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return stageEnd, fmt.Errorf("load context documents: %w", err)
	}

	builder := contextbuild.New(contextbuild.Config{Budget: st.req.ContextBudget()})
	st.block = builder.Build(st.results, docs)
	return stageGenerate, nil
}

// generate produces the answer, or the fixed refusal when no context
// survived. The prompt carries the user's original question; reformulation
// only ever rewrites the retrieval query.
func (st *pipelineState) generate(ctx context.Context) (stage, error) {
	if st.block.Text == "" {
		st.answer = refusalText
		st.grounded = false
		return stageEnd, nil
	}

	res, err := st.svc.generator.Generate(ctx, buildPrompt(st.block.Text, st.req.Query()))
	if err != nil {
		return stageEnd, fmt.Errorf("generate answer: %w", err)
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(res.TotalTokens)

	st.answer = res.Text
	st.grounded = true
	return stageEnd, nil
}
