package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

// The configured base URL already carries the API version prefix.
const chatCompletionPath = "/text/chatcompletion_v2"

// MiniMaxClient calls the MiniMax chat completion API over plain HTTP.
type MiniMaxClient struct {
	token       string
	baseURL     string
	model       string
	groupID     string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// NewMiniMaxClient creates a MiniMax-backed Summarizer from the AI
// configuration. The group ID is the MiniMax account group, appended as
// a query parameter on every request.
func NewMiniMaxClient(cfg config.AIConfig, logger *slog.Logger) (*MiniMaxClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("minimax API token is required")
	}

	client := &MiniMaxClient{
		token:       cfg.Token,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		groupID:     cfg.GroupID,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger.With("component", "minimax_client"),
	}

	client.logger.Info("MiniMax client initialized", "model", cfg.Model)
	return client, nil
}

// Summarize sends the formatted transcript to the chat completion
// endpoint and returns the generated summary text.
func (c *MiniMaxClient) Summarize(ctx context.Context, messages []database.Message, length, language string) (string, error) {
	c.logger.DebugContext(ctx, "Generating summary", "message_count", len(messages), "length", length, "language", language)

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SummarySystemInstruction},
			{Role: "user", Content: buildUserPrompt(messages, length, language)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + chatCompletionPath
	if c.groupID != "" {
		url += "?GroupId=" + c.groupID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("minimax request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.ErrorContext(ctx, "MiniMax API returned non-200 status",
			"status", resp.StatusCode, "body_preview", truncate(string(respBody), 200))
		return "", fmt.Errorf("minimax API returned status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if completion.BaseResp.StatusCode != 0 {
		return "", fmt.Errorf("minimax API error %d: %s", completion.BaseResp.StatusCode, completion.BaseResp.StatusMsg)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("minimax response contained no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("minimax response contained empty content")
	}
	return text, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
