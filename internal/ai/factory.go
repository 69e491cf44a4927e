package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wenjia-li/digestbot/internal/config"
)

// Backend names accepted in the AI configuration.
const (
	ProviderMiniMax = "minimax"
	ProviderGemini  = "gemini"
)

// NewSummarizer creates the configured Summarizer backend.
func NewSummarizer(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Summarizer, error) {
	switch cfg.Provider {
	case ProviderMiniMax:
		return NewMiniMaxClient(cfg, logger)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %q", cfg.Provider)
	}
}
