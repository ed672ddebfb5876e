package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/borderdrill/internal/logger"
	"github.com/abhisek/borderdrill/internal/store"
)

// NewProvider creates a Provider from configuration.
//
// Middleware order: caller → timeout → tracing → retry → logging → base.
// Every attempt is audited; the timeout covers the whole retry loop.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry)
	traced := WithTracing(retried)

	return WithTimeout(traced, cfg.Timeout), nil
}
