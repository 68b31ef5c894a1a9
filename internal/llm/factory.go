package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a provider client based on the provided configuration.
// When cfg.RateLimit is positive the client is wrapped in a token bucket
// allowing that many requests per minute.
func NewClient(cfg Config) (Client, error) {
	var client Client

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		client = newOpenAIClient(cfg)
	case "anthropic":
		client = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if cfg.RateLimit > 0 {
		client = newRateLimitedClient(client, cfg.RateLimit)
	}

	return client, nil
}
