package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// DefaultBedrockModel is Amazon Titan Text Premier.
	DefaultBedrockModel = "amazon.titan-text-premier-v1:0"
	// DefaultBedrockRegion is used when neither config nor AWS_REGION set one.
	DefaultBedrockRegion = "us-east-1"
)

// bedrockInvoker is the subset of the Bedrock Runtime client we call.
type bedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient invokes Amazon Titan text models on AWS Bedrock.
type BedrockClient struct {
	api   bedrockInvoker
	retry retryPolicy
}

// NewBedrockClient loads AWS credentials from the default chain
// (environment, shared config, instance role).
func NewBedrockClient(ctx context.Context, region string, retryMax int) (*BedrockClient, error) {
	if region == "" {
		region = DefaultBedrockRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(max(retryMax, 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	// Throttling retries happen inside the SDK.
	return &BedrockClient{api: bedrockruntime.NewFromConfig(cfg), retry: retryPolicy{attempts: 1}}, nil
}

type titanRequest struct {
	InputText            string                `json:"inputText"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

type titanGenerationConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
}

type titanResponse struct {
	InputTextTokenCount int `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount       int    `json:"tokenCount"`
		OutputText       string `json:"outputText"`
		CompletionReason string `json:"completionReason"`
	} `json:"results"`
}

// Generate flattens the messages into Titan's single inputText field.
func (c *BedrockClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultBedrockModel
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	parts := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		parts = append(parts, m.Content)
	}
	body := titanRequest{
		InputText: strings.Join(parts, "\n\n"),
		TextGenerationConfig: titanGenerationConfig{
			MaxTokenCount: req.MaxTokens,
			Temperature:   req.Temperature,
		},
	}
	if body.TextGenerationConfig.MaxTokenCount <= 0 {
		body.TextGenerationConfig.MaxTokenCount = 1024
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out *GenerateResponse
	err = c.retry.do(ctx, func() error {
		resp, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(model),
			Body:        payload,
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
		})
		if err != nil {
			return mapBedrockError(err)
		}
		var tr titanResponse
		if err := json.Unmarshal(resp.Body, &tr); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		gr := &GenerateResponse{Usage: Usage{PromptTokens: tr.InputTextTokenCount}}
		for _, r := range tr.Results {
			gr.Choices = append(gr.Choices, Choice{Message: Message{Role: "assistant", Content: r.OutputText}})
			gr.Usage.CompletionTokens += r.TokenCount
		}
		gr.Usage.TotalTokens = gr.Usage.PromptTokens + gr.Usage.CompletionTokens
		out = gr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mapBedrockError(err error) error {
	var (
		denied     *brtypes.AccessDeniedException
		throttled  *brtypes.ThrottlingException
		invalid    *brtypes.ValidationException
		missing    *brtypes.ResourceNotFoundException
		quota      *brtypes.ServiceQuotaExceededException
		internal   *brtypes.InternalServerException
		modelError *brtypes.ModelErrorException
	)
	switch {
	case errors.As(err, &denied):
		return &AuthError{APIError: &APIError{StatusCode: http.StatusForbidden, Message: denied.ErrorMessage()}}
	case errors.As(err, &throttled):
		return &RateLimitError{APIError: &APIError{StatusCode: http.StatusTooManyRequests, Message: throttled.ErrorMessage()}}
	case errors.As(err, &invalid):
		return &BadRequestError{APIError: &APIError{StatusCode: http.StatusBadRequest, Message: invalid.ErrorMessage()}}
	case errors.As(err, &missing):
		return &ModelNotFoundError{APIError: &APIError{StatusCode: http.StatusNotFound, Code: "model_not_found", Message: missing.ErrorMessage()}}
	case errors.As(err, &quota):
		return &QuotaExceededError{APIError: &APIError{StatusCode: http.StatusTooManyRequests, Code: "quota_exceeded", Message: quota.ErrorMessage()}}
	case errors.As(err, &internal):
		return &ServerError{APIError: &APIError{StatusCode: http.StatusInternalServerError, Message: internal.ErrorMessage()}}
	case errors.As(err, &modelError):
		return &ServerError{APIError: &APIError{StatusCode: http.StatusBadGateway, Message: modelError.ErrorMessage()}}
	}
	return &UnreachableError{Host: "bedrock-runtime", Err: err}
}
