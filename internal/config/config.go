// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.answerd/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: top-k, workflow boost, similarity thresholds
//   - Feedback: weight adjustment rate, weight bounds, bulk limits
//
// Sensitive data (passwords) are never logged; see MarshalJSON.
// Validation uses sentinel errors for errors.Is() checks.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTopK indicates a top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidBoostFactor indicates the workflow boost factor is out of range.
	ErrInvalidBoostFactor = errors.New("invalid workflow boost factor")

	// ErrInvalidWeightBounds indicates the chunk weight bounds are inconsistent.
	ErrInvalidWeightBounds = errors.New("invalid chunk weight bounds")

	// ErrInvalidAdjustmentRate indicates the weight adjustment rate is out of range.
	ErrInvalidAdjustmentRate = errors.New("invalid weight adjustment rate")

	// ErrInvalidSimilarity indicates a similarity threshold is out of range.
	ErrInvalidSimilarity = errors.New("invalid similarity threshold")

	// ErrInvalidBulkSize indicates the bulk feedback limit is out of range.
	ErrInvalidBulkSize = errors.New("invalid bulk feedback size")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidHTTPAddr indicates the HTTP listen address is invalid.
	ErrInvalidHTTPAddr = errors.New("invalid HTTP listen address")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// HTTP server configuration
	HTTPAddr string `mapstructure:"http_addr" json:"http_addr"`

	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`       // "gemini" (default), "ollama", "openai"
	ModelName     string `mapstructure:"model_name" json:"model_name"`   // e.g. "gemini-2.5-flash", "llama3.3", "gpt-4o"
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"` // only used when provider is "ollama"

	// Retrieval configuration
	TopKRetrieval         int     `mapstructure:"top_k_retrieval" json:"top_k_retrieval"`
	WorkflowBoostFactor   float64 `mapstructure:"workflow_boost_factor" json:"workflow_boost_factor"`
	WorkflowTopK          int     `mapstructure:"workflow_top_k" json:"workflow_top_k"`
	WorkflowMinSimilarity float64 `mapstructure:"workflow_min_similarity" json:"workflow_min_similarity"`

	// Feedback and learning configuration
	ChunkWeightAdjustmentRate   float64 `mapstructure:"chunk_weight_adjustment_rate" json:"chunk_weight_adjustment_rate"`
	MinChunkWeight              float64 `mapstructure:"min_chunk_weight" json:"min_chunk_weight"`
	MaxChunkWeight              float64 `mapstructure:"max_chunk_weight" json:"max_chunk_weight"`
	WorkflowEmbeddingEnabled    bool    `mapstructure:"workflow_embedding_enabled" json:"workflow_embedding_enabled"`
	MaxBulkFeedbackSize         int     `mapstructure:"max_bulk_feedback_size" json:"max_bulk_feedback_size"`
	FeedbackThresholdForRetrain int     `mapstructure:"feedback_threshold_for_retrain" json:"feedback_threshold_for_retrain"`
	MinWorkflowClusterSize      int     `mapstructure:"min_workflow_cluster_size" json:"min_workflow_cluster_size"`

	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.answerd/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".answerd")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings when set.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// HTTP defaults
	viper.SetDefault("http_addr", ":8080")

	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", "text-embedding-004")
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Retrieval defaults
	viper.SetDefault("top_k_retrieval", 5)
	viper.SetDefault("workflow_boost_factor", 1.2)
	viper.SetDefault("workflow_top_k", 3)
	viper.SetDefault("workflow_min_similarity", 0.7)

	// Feedback defaults
	viper.SetDefault("chunk_weight_adjustment_rate", 0.1)
	viper.SetDefault("min_chunk_weight", 0.5)
	viper.SetDefault("max_chunk_weight", 2.0)
	viper.SetDefault("workflow_embedding_enabled", true)
	viper.SetDefault("max_bulk_feedback_size", 100)
	viper.SetDefault("feedback_threshold_for_retrain", 50)
	viper.SetDefault("min_workflow_cluster_size", 3)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "answerd")
	viper.SetDefault("postgres_password", "answerd_dev_password")
	viper.SetDefault("postgres_db_name", "answerd")
	viper.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment variable overrides explicitly.
// API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by the Genkit
// plugins, not via Viper; Validate() checks their presence per provider.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("http_addr", "ANSWERD_HTTP_ADDR")
	mustBind("provider", "ANSWERD_PROVIDER")
	mustBind("model_name", "ANSWERD_MODEL_NAME")
	mustBind("embedder_model", "ANSWERD_EMBEDDER_MODEL")
	mustBind("ollama_host", "ANSWERD_OLLAMA_HOST")
	mustBind("top_k_retrieval", "ANSWERD_TOP_K_RETRIEVAL")
	mustBind("workflow_boost_factor", "ANSWERD_WORKFLOW_BOOST_FACTOR")
	mustBind("workflow_embedding_enabled", "ANSWERD_WORKFLOW_EMBEDDING_ENABLED")
	mustBind("max_bulk_feedback_size", "ANSWERD_MAX_BULK_FEEDBACK_SIZE")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets keep the
// first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
