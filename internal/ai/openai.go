package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient calls the OpenAI chat completions API through go-openai.
type OpenAIClient struct {
	client *openai.Client
	retry  retryPolicy
}

// NewOpenAIClient builds a client. baseURL overrides the API endpoint when
// non-empty (Azure-compatible gateways, tests).
func NewOpenAIClient(apiKey, baseURL string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is missing")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: httpTimeout}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		retry:  retryPolicy{attempts: retryMax, baseDelay: baseDelay, maxDelay: maxDelay},
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	creq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	}
	for _, m := range req.Messages {
		creq.Messages = append(creq.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	var out *GenerateResponse
	err := c.retry.do(ctx, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, creq)
		if err != nil {
			return mapOpenAIError(err)
		}
		gr := &GenerateResponse{
			ID: resp.ID,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
			RequestID: resp.Header().Get("X-Request-Id"),
		}
		for _, ch := range resp.Choices {
			gr.Choices = append(gr.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
		}
		out = gr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mapOpenAIError converts go-openai failures into this package's typed errors.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if code, ok := apiErr.Code.(string); ok {
			e.Code = code
		}
		return classifyAPIError(e, nil)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyAPIError(&APIError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()}, nil)
	}
	return fmt.Errorf("openai request: %w", err)
}
