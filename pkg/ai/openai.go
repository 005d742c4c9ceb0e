package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultRequestTimeout = 120 * time.Second
	// Naming calls ask for a handful of short labels.
	namerMaxTokens = 200
)

// StructuredRequest describes one schema-constrained completion.
type StructuredRequest struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       map[string]any
	Temperature  float64
}

// Config holds OpenAI client settings.
type Config struct {
	APIKey         string
	BaseURL        string
	AnalysisModel  string
	NamerModel     string
	RequestTimeout time.Duration
}

// Client wraps the OpenAI API for the two call shapes the pipeline needs:
// strict structured extraction and short free-text completion.
type Client struct {
	api           openai.Client
	analysisModel string
	namerModel    string
	timeout       time.Duration
}

// NewClient constructs the client. NamerModel falls back to AnalysisModel.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	if strings.TrimSpace(cfg.AnalysisModel) == "" {
		return nil, fmt.Errorf("analysis model required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	namerModel := strings.TrimSpace(cfg.NamerModel)
	if namerModel == "" {
		namerModel = cfg.AnalysisModel
	}
	return &Client{
		api:           openai.NewClient(opts...),
		analysisModel: cfg.AnalysisModel,
		namerModel:    namerModel,
		timeout:       timeout,
	}, nil
}

// StructuredComplete issues one chat completion constrained to req.Schema and
// returns the raw response text. Empty or malformed content is returned
// as-is; classification is the caller's concern.
func (c *Client) StructuredComplete(ctx context.Context, req StructuredRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.analysisModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(req.UserPrompt),
		},
		Temperature: openai.Float(req.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai structured completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Complete issues a plain completion with the cheaper naming model.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.namerModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		MaxTokens:   openai.Int(namerMaxTokens),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
