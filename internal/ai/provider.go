package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ProviderConfig selects and configures the generative text provider.
type ProviderConfig struct {
	Provider     string // gemini, openai or none
	GeminiAPIKey string
	OpenAIAPIKey string
	Model        string
	Guard        GuardConfig
}

// New returns the configured provider wrapped in a Guarded, or nil when the
// provider is "none" or has no API key. A nil Generator disables suggestions
// and tips; it is not an error.
func New(ctx context.Context, cfg ProviderConfig, log *slog.Logger) (Generator, error) {
	if log == nil {
		log = slog.Default()
	}
	var (
		gen  Generator
		err  error
		name = strings.ToLower(strings.TrimSpace(cfg.Provider))
	)
	switch name {
	case "", ProviderNone:
		return nil, nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set; generative features disabled")
			return nil, nil
		}
		gen, err = NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY not set; generative features disabled")
			return nil, nil
		}
		gen, err = NewOpenAI(cfg.OpenAIAPIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("ai.New: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	log.Info("generative text provider configured", "provider", name)
	return NewGuarded(gen, name, cfg.Guard, log), nil
}
