package generation

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tbourn/go-idea-board/internal/config"
)

// Provider turns a prompt into raw reply text. Implementations return errors
// wrapping ErrUpstream for transport and status failures.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p Prompt) (string, error)
}

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.GenerationConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, &http.Client{Timeout: cfg.Timeout}), nil
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "template":
		return NewTemplate(nil), nil
	default:
		return nil, fmt.Errorf("generation: unknown provider %q", cfg.Provider)
	}
}
