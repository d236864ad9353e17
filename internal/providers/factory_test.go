package providers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/promptcraft/internal/config"
	"github.com/ChamsBouzaiene/promptcraft/internal/engine"
)

func TestNewLLMClient_Azure(t *testing.T) {
	cfg := &config.Config{
		Provider: "azure",
		Azure: config.AzureConfig{
			Endpoint:   "https://example.openai.azure.com/",
			APIVersion: "2024-02-15-preview",
			Deployment: "gpt-4o",
			APIKey:     "key",
		},
	}

	client, model, err := NewLLMClient(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, client)
	assert.Equal(t, "gpt-4o", model)
}

func TestNewLLMClient_AzureMissingSettings(t *testing.T) {
	tests := []struct {
		name  string
		azure config.AzureConfig
		want  string
	}{
		{"endpoint", config.AzureConfig{Deployment: "d", APIKey: "k"}, "AZURE_OPENAI_ENDPOINT"},
		{"deployment", config.AzureConfig{Endpoint: "https://x", APIKey: "k"}, "AZURE_OPENAI_DEPLOYMENT"},
		{"key", config.AzureConfig{Endpoint: "https://x", Deployment: "d"}, "AZURE_OPENAI_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewLLMClient(&config.Config{Provider: "azure", Azure: tt.azure})
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewLLMClient_Defaults(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		want     string
		wantType any
	}{
		{"openai", "k", "gpt-4o-mini", &OpenAIClient{}},
		{"anthropic", "k", "claude-3-5-sonnet-latest", &AnthropicClient{}},
		{"ollama", "", "llama3.1", &OpenAIClient{}},
		{"lmstudio", "", "local-model", &OpenAIClient{}},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			client, model, err := NewLLMClient(&config.Config{Provider: tt.provider, APIKey: tt.apiKey})
			require.NoError(t, err)
			assert.Equal(t, tt.want, model)
			assert.IsType(t, tt.wantType, client)
		})
	}
}

func TestNewLLMClient_Errors(t *testing.T) {
	_, _, err := NewLLMClient(&config.Config{Provider: "openai"})
	assert.Error(t, err)

	_, _, err = NewLLMClient(&config.Config{Provider: "anthropic"})
	assert.Error(t, err)

	_, _, err = NewLLMClient(&config.Config{Provider: "mystery"})
	assert.ErrorContains(t, err, "unknown provider")
}

func TestExtractErrorMetadata(t *testing.T) {
	status, retryAfter := extractErrorMetadata(errors.New("error, status code: 429, Retry-After: 12"))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "12", retryAfter)

	status, retryAfter = extractErrorMetadata(errors.New("401 unauthorized"))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, retryAfter)

	status, _ = extractErrorMetadata(nil)
	assert.Zero(t, status)
}

func TestWrappedErrorIsClassified(t *testing.T) {
	status, retryAfter := extractErrorMetadata(errors.New("status code: 503"))
	err := engine.WrapLLMError(errors.New("status code: 503"), status, retryAfter)

	var engineErr *engine.EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, engine.RetryClassRetryable, engineErr.Class)
	assert.True(t, engineErr.IsNetwork)
}
