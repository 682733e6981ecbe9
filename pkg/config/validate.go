package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for valid values. A missing API key is
// not an error here: it surfaces as ConfigMissing when a request targets
// that provider.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BackoffStep < 0 {
		errs = append(errs, fmt.Errorf("retry.backoff_step must not be negative, got %s", c.Retry.BackoffStep))
	}

	for name, p := range map[string]ProviderConfig{
		"openai":     c.Providers.OpenAI,
		"groq":       c.Providers.Groq,
		"fireworks":  c.Providers.Fireworks,
		"perplexity": c.Providers.Perplexity,
	} {
		if p.Deadline < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.deadline must not be negative, got %s", name, p.Deadline))
		}
		if p.MaxTokens < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.max_tokens must not be negative, got %d", name, p.MaxTokens))
		}
	}

	return errors.Join(errs...)
}
