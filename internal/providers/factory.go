package providers

import (
	"fmt"
	"time"

	"github.com/ChamsBouzaiene/promptcraft/internal/config"
	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
)

// NewLLMClient creates an engine.LLMClient for cfg.Provider and returns the
// model or deployment identity requests should target.
func NewLLMClient(cfg *config.Config) (engine.LLMClient, string, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "azure"
	}
	timeout := cfg.LLM.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch provider {
	case "azure":
		client, err := NewAzureOpenAIClient(cfg.Azure.APIKey, cfg.Azure.Endpoint, cfg.Azure.APIVersion, cfg.Azure.Deployment, timeout)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Azure OpenAI client: %w", err)
		}
		return client, cfg.Azure.Deployment, nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, "", fmt.Errorf("PROMPTCRAFT_API_KEY not set")
		}
		modelName := orDefault(cfg.Model, "gpt-4o-mini")
		client, err := NewOpenAIClient(cfg.APIKey, modelName, cfg.BaseURL, timeout)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, modelName, nil

	case "anthropic":
		modelName := orDefault(cfg.Model, "claude-3-5-sonnet-latest")
		client, err := NewAnthropicClient(cfg.APIKey, modelName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, modelName, nil

	case "ollama":
		// Ollama local server (OpenAI-compatible)
		modelName := orDefault(cfg.Model, "llama3.1")
		client, err := NewOpenAIClient(orDefault(cfg.APIKey, "ollama"), modelName, orDefault(cfg.BaseURL, "http://localhost:11434/v1"), timeout)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, modelName, nil

	case "lmstudio":
		// LM Studio local server (OpenAI-compatible)
		modelName := orDefault(cfg.Model, "local-model")
		client, err := NewOpenAIClient(orDefault(cfg.APIKey, "lm-studio"), modelName, orDefault(cfg.BaseURL, "http://localhost:1234/v1"), timeout)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create LM Studio client: %w", err)
		}
		return client, modelName, nil

	default:
		return nil, "", fmt.Errorf("unknown provider: %s (supported: azure, openai, anthropic, ollama, lmstudio)", provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
