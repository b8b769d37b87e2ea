package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider and API key validation
	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI, "":
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty when provider is %q", ErrInvalidProvider, ProviderOllama)
		}
	default:
		return fmt.Errorf("%w: %q is not supported, must be one of: gemini, ollama, openai",
			ErrInvalidProvider, c.Provider)
	}

	// 2. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// 3. Retrieval configuration validation
	if c.TopKRetrieval < 1 || c.TopKRetrieval > 50 {
		return fmt.Errorf("%w: top_k_retrieval must be between 1 and 50, got %d", ErrInvalidTopK, c.TopKRetrieval)
	}
	if c.WorkflowTopK < 1 || c.WorkflowTopK > 50 {
		return fmt.Errorf("%w: workflow_top_k must be between 1 and 50, got %d", ErrInvalidTopK, c.WorkflowTopK)
	}
	if c.WorkflowBoostFactor < 1.0 {
		return fmt.Errorf("%w: must be >= 1.0, got %.2f", ErrInvalidBoostFactor, c.WorkflowBoostFactor)
	}
	if c.WorkflowMinSimilarity < 0.0 || c.WorkflowMinSimilarity > 1.0 {
		return fmt.Errorf("%w: workflow_min_similarity must be between 0.0 and 1.0, got %.2f",
			ErrInvalidSimilarity, c.WorkflowMinSimilarity)
	}

	// 4. Feedback configuration validation
	if c.ChunkWeightAdjustmentRate <= 0.0 || c.ChunkWeightAdjustmentRate > 1.0 {
		return fmt.Errorf("%w: must be in (0.0, 1.0], got %.2f", ErrInvalidAdjustmentRate, c.ChunkWeightAdjustmentRate)
	}
	if c.MinChunkWeight <= 0.0 || c.MaxChunkWeight <= c.MinChunkWeight {
		return fmt.Errorf("%w: need 0 < min < max, got min=%.2f max=%.2f",
			ErrInvalidWeightBounds, c.MinChunkWeight, c.MaxChunkWeight)
	}
	if c.MaxBulkFeedbackSize < 1 {
		return fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidBulkSize, c.MaxBulkFeedbackSize)
	}

	// 5. PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}

	// Warn if using default dev password (but don't block, user might be in dev)
	if c.PostgresPassword == "answerd_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// 6. PostgreSQL SSL mode validation
	// Modern SSL modes only; deprecated allow/prefer are excluded (MITM vulnerable).
	// Reference: https://www.postgresql.org/docs/current/libpq-ssl.html
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// 7. HTTP listen address validation
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: http_addr cannot be empty", ErrInvalidHTTPAddr)
	}

	return nil
}
