// Package ai provides text-completion providers for AI-assisted matching.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clubledger/reconcile/internal/domain/aimatch"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return "gpt-4o-mini"
	}
}

// New returns the completer for cfg.Provider. An empty provider returns a
// nil completer, which disables AI matching.
func New(ctx context.Context, cfg Config) (aimatch.Completer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		return nil, nil
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel(provider)
	}

	switch provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAICompleter(cfg), nil
	case ProviderGemini:
		c, err := NewGeminiCompleter(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
