package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
)

// mockInvoker fakes the Bedrock runtime client.
type mockInvoker struct {
	invokeFn func(ctx context.Context, params *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error)
	inputs   []*bedrockruntime.InvokeModelInput
}

func (m *mockInvoker) InvokeModel(
	ctx context.Context, params *bedrockruntime.InvokeModelInput,
	_ ...func(*bedrockruntime.Options),
) (*bedrockruntime.InvokeModelOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.invokeFn != nil {
		return m.invokeFn(ctx, params)
	}
	return invokeOutput("Claude says hello.", 100, 25), nil
}

func invokeOutput(text string, inTokens, outTokens int) *bedrockruntime.InvokeModelOutput {
	body, _ := json.Marshal(map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-3-haiku",
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": inTokens, "output_tokens": outTokens},
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}
}

func TestGenerate_HappyPath(t *testing.T) {
	mi := &mockInvoker{}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	res, err := gen.Generate(context.Background(), "grounded prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "Claude says hello." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.PromptTokens != 100 || res.CompletionTokens != 25 || res.TotalTokens != 125 {
		t.Errorf("usage = (%d, %d, %d)", res.PromptTokens, res.CompletionTokens, res.TotalTokens)
	}

	input := mi.inputs[0]
	if *input.ModelId != DefaultModelID {
		t.Errorf("ModelId = %q, want default", *input.ModelId)
	}
	if *input.ContentType != "application/json" {
		t.Errorf("ContentType = %q", *input.ContentType)
	}

	var req anthropicRequest
	if err := json.Unmarshal(input.Body, &req); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if req.AnthropicVersion != "bedrock-2023-05-31" {
		t.Errorf("anthropic_version = %q", req.AnthropicVersion)
	}
	if req.MaxTokens != DefaultMaxTokens {
		t.Errorf("max_tokens = %d", req.MaxTokens)
	}
	if req.Temperature != DefaultTemperature {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" ||
		req.Messages[0].Content != "grounded prompt" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestGenerate_MultipleTextBlocks(t *testing.T) {
	mi := &mockInvoker{
		invokeFn: func(_ context.Context, _ *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
			body, _ := json.Marshal(map[string]any{
				"content": []map[string]any{
					{"type": "text", "text": "First part. "},
					{"type": "text", "text": "Second part."},
				},
				"usage": map[string]any{"input_tokens": 10, "output_tokens": 5},
			})
			return &bedrockruntime.InvokeModelOutput{Body: body}, nil
		},
	}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	res, err := gen.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "First part. Second part." {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestGenerate_DeadlineMapsToTimeout(t *testing.T) {
	mi := &mockInvoker{
		invokeFn: func(ctx context.Context, _ *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gen.Generate(ctx, "prompt")
	if !errors.Is(err, domain.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}

func TestGenerate_ThrottlingKeepsBothSentinels(t *testing.T) {
	mi := &mockInvoker{
		invokeFn: func(_ context.Context, _ *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
			return nil, &smithy.GenericAPIError{
				Code: "ThrottlingException", Message: "slow down", Fault: smithy.FaultServer,
			}
		},
	}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	_, err := gen.Generate(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestGenerate_ProviderErrorMapsToUnavailable(t *testing.T) {
	mi := &mockInvoker{
		invokeFn: func(_ context.Context, _ *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
			return nil, errors.New("connection refused")
		},
	}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	_, err := gen.Generate(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestGenerate_EmptyContentIsError(t *testing.T) {
	mi := &mockInvoker{
		invokeFn: func(_ context.Context, _ *bedrockruntime.InvokeModelInput) (*bedrockruntime.InvokeModelOutput, error) {
			body, _ := json.Marshal(map[string]any{"content": []map[string]any{}})
			return &bedrockruntime.InvokeModelOutput{Body: body}, nil
		},
	}
	gen := New(mi, &Config{Logger: zap.NewNop()})

	_, err := gen.Generate(context.Background(), "prompt")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable for empty content, got %v", err)
	}
}

func TestGenerate_ExplicitConfig(t *testing.T) {
	mi := &mockInvoker{}
	gen := New(mi, &Config{
		ModelID:     "anthropic.claude-3-5-sonnet-20240620-v1:0",
		Temperature: 0.3,
		MaxTokens:   2048,
		Logger:      zap.NewNop(),
	})

	if _, err := gen.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	input := mi.inputs[0]
	if *input.ModelId != "anthropic.claude-3-5-sonnet-20240620-v1:0" {
		t.Errorf("ModelId = %q", *input.ModelId)
	}
	var req anthropicRequest
	if err := json.Unmarshal(input.Body, &req); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if req.Temperature != 0.3 || req.MaxTokens != 2048 {
		t.Errorf("temperature/max_tokens = %v/%d", req.Temperature, req.MaxTokens)
	}
}
