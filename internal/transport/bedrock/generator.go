package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/kailas-cloud/answerdex/internal/domain"
)

// anthropicVersion is the Bedrock-side Anthropic messages API revision.
const anthropicVersion = "bedrock-2023-05-31"

// Generation defaults.
const (
	DefaultModelID     = "anthropic.claude-3-haiku-20240307-v1:0"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.7
)

// InvokeModelAPI is the slice of the Bedrock runtime client this generator uses.
type InvokeModelAPI interface {
	InvokeModel(
		ctx context.Context, params *bedrockruntime.InvokeModelInput,
		optFns ...func(*bedrockruntime.Options),
	) (*bedrockruntime.InvokeModelOutput, error)
}

// Generator produces answers via Bedrock-hosted Anthropic models.
type Generator struct {
	client      InvokeModelAPI
	modelID     string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// Config holds the Bedrock generation settings.
type Config struct {
	ModelID     string
	Temperature float64
	MaxTokens   int
	Logger      *zap.Logger
}

// New creates a Bedrock generator. Zero config fields select the defaults.
func New(client InvokeModelAPI, cfg *Config) *Generator {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = DefaultModelID
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Generator{
		client:      client,
		modelID:     modelID,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Temperature      float64            `json:"temperature,omitempty"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate implements domain.Generator over bedrockruntime.InvokeModel.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        g.maxTokens,
		Temperature:      g.temperature,
		Messages:         []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return domain.GenerationResult{}, fmt.Errorf("marshal invoke body: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return domain.GenerationResult{}, mapInvokeError(err)
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return domain.GenerationResult{}, fmt.Errorf("decode invoke response: %w: %w",
			domain.ErrGenerationUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return domain.GenerationResult{}, fmt.Errorf("empty invoke response: %w", domain.ErrGenerationUnavailable)
	}

	model := resp.Model
	if model == "" {
		model = g.modelID
	}

	return domain.GenerationResult{
		Text:             sb.String(),
		Model:            model,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// mapInvokeError converts SDK failures into the domain taxonomy.
func mapInvokeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("bedrock invoke deadline exceeded: %w", domain.ErrGenerationTimeout)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "ThrottlingException" {
			return fmt.Errorf("bedrock invoke throttled: %w: %w",
				domain.ErrRateLimited, domain.ErrGenerationUnavailable)
		}
		return fmt.Errorf("bedrock invoke failed (%s): %s: %w",
			apiErr.ErrorCode(), apiErr.ErrorMessage(), domain.ErrGenerationUnavailable)
	}

	return fmt.Errorf("bedrock invoke failed: %w: %w", domain.ErrGenerationUnavailable, err)
}
