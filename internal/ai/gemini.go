package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

// GeminiClient is a Summarizer backed by Google's Gemini API.
type GeminiClient struct {
	genaiClient *genai.Client
	modelName   string
	temperature float32
	logger      *slog.Logger
}

// NewGeminiClient creates a Gemini-backed Summarizer from the AI
// configuration.
func NewGeminiClient(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	log := logger.With("component", "gemini_client")
	log.Info("Gemini client initialized", "model", cfg.Model)
	return &GeminiClient{
		genaiClient: gi,
		modelName:   cfg.Model,
		temperature: cfg.Temperature,
		logger:      log,
	}, nil
}

// Summarize sends the formatted transcript to the Gemini model and
// returns the generated summary text.
func (c *GeminiClient) Summarize(ctx context.Context, messages []database.Message, length, language string) (string, error) {
	c.logger.DebugContext(ctx, "Generating summary", "message_count", len(messages), "length", length, "language", language)

	contents := []*genai.Content{
		genai.NewContentFromText(buildUserPrompt(messages, length, language), genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:       &c.temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SummarySystemInstruction}}},
	}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("gemini request blocked by safety filter: %s", reason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response contained no content")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response contained empty text")
	}
	return text, nil
}
