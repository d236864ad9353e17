package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the tool reads at startup.
type Config struct {
	Provider string `mapstructure:"provider"` // azure, openai, anthropic, ollama, lmstudio
	Model    string `mapstructure:"model"`    // Model name for non-Azure providers
	BaseURL  string `mapstructure:"base_url"` // Optional override for the API base URL
	APIKey   string `mapstructure:"api_key"`  // API key for non-Azure providers

	Azure   AzureConfig   `mapstructure:"azure"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Library LibraryConfig `mapstructure:"library"`
	Log     LogConfig     `mapstructure:"log"`
}

// AzureConfig mirrors the AZURE_OPENAI_* environment of the original tool.
type AzureConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	APIVersion string `mapstructure:"api_version"`
	Deployment string `mapstructure:"deployment"`
	APIKey     string `mapstructure:"api_key"`
}

// LLMConfig holds request knobs shared by all providers.
type LLMConfig struct {
	Temperature float32       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// LibraryConfig selects where saved prompts live.
type LibraryConfig struct {
	Backend string `mapstructure:"backend"` // json or sqlite
	Path    string `mapstructure:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty means stderr
}

// Library backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

const envPrefix = "PROMPTCRAFT"

// DefaultConfigDir returns the per-user directory searched for promptcraft.yaml.
func DefaultConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}
	return filepath.Join(configDir, "promptcraft"), nil
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are ignored; existing variables are never overwritten.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("provider", "azure")
	v.SetDefault("model", "")
	v.SetDefault("base_url", "")
	v.SetDefault("api_key", "")

	v.SetDefault("azure.endpoint", "")
	v.SetDefault("azure.api_version", "2024-02-15-preview")
	v.SetDefault("azure.deployment", "")
	v.SetDefault("azure.api_key", "")

	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 0)

	v.SetDefault("library.backend", BackendJSON)
	v.SetDefault("library.path", "prompts.json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original tool's variable names take part alongside the prefixed ones.
	_ = v.BindEnv("azure.endpoint", envPrefix+"_AZURE_ENDPOINT", "AZURE_OPENAI_ENDPOINT")
	_ = v.BindEnv("azure.api_version", envPrefix+"_AZURE_API_VERSION", "AZURE_OPENAI_API_VERSION")
	_ = v.BindEnv("azure.deployment", envPrefix+"_AZURE_DEPLOYMENT", "AZURE_OPENAI_DEPLOYMENT")
	_ = v.BindEnv("azure.api_key", envPrefix+"_AZURE_API_KEY", "AZURE_OPENAI_KEY")

	return v
}

// Load reads configuration from configFile (optional), the environment and defaults.
// When configFile is empty, promptcraft.{yaml,json,toml} is looked up in the
// working directory and DefaultConfigDir; a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = New()
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("promptcraft")
		v.AddConfigPath(".")
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks library and LLM settings. Provider credentials are not
// checked; a missing key surfaces as an LLM error on the first call.
func (c *Config) Validate() error {
	switch c.Library.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown library backend %q (supported: %s, %s)", c.Library.Backend, BackendJSON, BackendSQLite)
	}
	if c.Library.Path == "" {
		return errors.New("library path must not be empty")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	return nil
}
