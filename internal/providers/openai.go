package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/promptcraft/internal/engine"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIClient implements engine.LLMClient over the OpenAI chat-completions API.
// It also serves Azure OpenAI and OpenAI-compatible local servers.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewOpenAIClient creates a client for OpenAI or an OpenAI-compatible endpoint.
func NewOpenAIClient(apiKey, modelName, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// NewAzureOpenAIClient creates a client routed to an Azure OpenAI deployment.
// The deployment name is used as the model on every request.
func NewAzureOpenAIClient(apiKey, endpoint, apiVersion, deployment string, timeout time.Duration) (*OpenAIClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_ENDPOINT not set")
	}
	if deployment == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_DEPLOYMENT not set")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("AZURE_OPENAI_KEY not set")
	}

	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	// Deployment names are user-chosen; pass them through untouched.
	config.AzureModelMapperFunc = func(model string) string { return model }
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		model:   deployment,
		baseURL: endpoint,
	}, nil
}

// Chat implements engine.LLMClient.Chat.
func (c *OpenAIClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}

	openaiMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		if err := msg.Validate(); err != nil {
			return engine.LLMResponse{}, err
		}
		openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
			Role:    toOpenAIRole(msg.Role),
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: openaiMsgs,
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, httpStatus, retryAfter)
	}

	if len(resp.Choices) == 0 {
		return engine.LLMResponse{}, fmt.Errorf("empty response from OpenAI")
	}

	choice := resp.Choices[0]

	finishReason := "stop"
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		finishReason = "length"
	case openai.FinishReasonContentFilter:
		finishReason = "content_filter"
	}

	return engine.LLMResponse{
		Assistant: engine.ChatMessage{
			Role:    engine.RoleAssistant,
			Content: choice.Message.Content,
		},
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		FinishReason: finishReason,
	}, nil
}

func toOpenAIRole(role engine.MessageRole) string {
	switch role {
	case engine.RoleSystem:
		return openai.ChatMessageRoleSystem
	case engine.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

// extractErrorMetadata extracts HTTP status code and Retry-After from an SDK error.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	var httpStatus int
	var retryAfter string

	// Common patterns: "429", "status code 429", "HTTP 429", etc.
	switch {
	case strings.Contains(errStr, "429"):
		httpStatus = http.StatusTooManyRequests
	case strings.Contains(errStr, "500"):
		httpStatus = http.StatusInternalServerError
	case strings.Contains(errStr, "502"):
		httpStatus = http.StatusBadGateway
	case strings.Contains(errStr, "503"):
		httpStatus = http.StatusServiceUnavailable
	case strings.Contains(errStr, "504"):
		httpStatus = http.StatusGatewayTimeout
	case strings.Contains(errStr, "401"):
		httpStatus = http.StatusUnauthorized
	case strings.Contains(errStr, "403"):
		httpStatus = http.StatusForbidden
	case strings.Contains(errStr, "400"):
		httpStatus = http.StatusBadRequest
	case strings.Contains(errStr, "402"):
		httpStatus = http.StatusPaymentRequired
	}

	lower := strings.ToLower(errStr)
	if idx := strings.Index(lower, "retry-after"); idx != -1 {
		if parts := strings.Fields(strings.TrimLeft(errStr[idx+len("retry-after"):], ": ")); len(parts) > 0 {
			retryAfter = parts[0]
		}
	} else if idx := strings.Index(lower, "retry after"); idx != -1 {
		if parts := strings.Fields(errStr[idx+len("retry after"):]); len(parts) > 0 {
			retryAfter = parts[0]
		}
	}

	return httpStatus, retryAfter
}
