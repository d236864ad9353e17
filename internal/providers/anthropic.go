package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicClient implements engine.LLMClient over the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for the Anthropic API.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not set")
	}
	return &AnthropicClient{client: anthropic.NewClient(apiKey), model: modelName}, nil
}

// Chat implements engine.LLMClient.
func (c *AnthropicClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	if modelName == "" {
		modelName = c.model
	}

	system, turns, err := splitAnthropicMessages(messages)
	if err != nil {
		return engine.LLMResponse{}, err
	}

	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(modelName),
		Messages:    turns,
		MultiSystem: system,
		MaxTokens:   anthropicDefaultMaxTokens,
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		status, retryAfter := extractErrorMetadata(err)
		return engine.LLMResponse{}, engine.WrapLLMError(err, status, retryAfter)
	}
	if len(resp.Content) == 0 {
		return engine.LLMResponse{}, errors.New("empty response from Anthropic")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}

	return engine.LLMResponse{
		Assistant: engine.ChatMessage{Role: engine.RoleAssistant, Content: text.String()},
		Usage: engine.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: anthropicFinishReason(string(resp.StopReason)),
	}, nil
}

// splitAnthropicMessages moves system messages into system parts; the API
// takes them outside the conversation.
func splitAnthropicMessages(messages []engine.ChatMessage) ([]anthropic.MessageSystemPart, []anthropic.Message, error) {
	var system []anthropic.MessageSystemPart
	var turns []anthropic.Message
	for _, msg := range messages {
		switch msg.Role {
		case engine.RoleSystem:
			system = append(system, anthropic.MessageSystemPart{Type: "text", Text: msg.Content})
		case engine.RoleUser:
			turns = append(turns, anthropic.NewUserTextMessage(msg.Content))
		case engine.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantTextMessage(msg.Content))
		default:
			return nil, nil, fmt.Errorf("invalid message role: %s", msg.Role)
		}
	}
	return system, turns, nil
}

func anthropicFinishReason(stop string) string {
	switch stop {
	case "max_tokens":
		return "length"
	case "refusal", "content_filtered":
		return "content_filter"
	default:
		return "stop"
	}
}
