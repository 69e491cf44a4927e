package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

func testAIConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:    ProviderMiniMax,
		Token:       "test-token",
		BaseURL:     baseURL,
		Model:       "abab6.5s-chat",
		GroupID:     "g123",
		Temperature: 0.7,
		MaxTokens:   2048,
		Timeout:     5 * time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleMessages() []database.Message {
	return []database.Message{
		{GroupID: -1, UserID: 1, UserName: "alice", Content: "早上好"},
		{GroupID: -1, UserID: 2, UserName: "bob", Content: "今天讨论一下发布计划"},
	}
}

func TestMiniMaxSummarizeRequest(t *testing.T) {
	var captured struct {
		auth    string
		groupID string
		body    chatCompletionRequest
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		captured.groupID = r.URL.Query().Get("GroupId")
		// The base URL ends in /v1, so the full path must carry the version
		// prefix exactly once.
		require.Equal(t, "/v1/text/chatcompletion_v2", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices":   []map[string]any{{"message": map[string]any{"content": "  今天主要讨论了发布计划。  "}}},
			"base_resp": map[string]any{"status_code": 0, "status_msg": "success"},
		})
	}))
	defer server.Close()

	client, err := NewMiniMaxClient(testAIConfig(server.URL+"/v1"), discardLogger())
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), sampleMessages(), database.SummaryLengthShort, database.LanguageChinese)
	require.NoError(t, err)
	assert.Equal(t, "今天主要讨论了发布计划。", summary, "response text is trimmed")

	assert.Equal(t, "Bearer test-token", captured.auth)
	assert.Equal(t, "g123", captured.groupID)
	assert.Equal(t, "abab6.5s-chat", captured.body.Model)
	assert.InDelta(t, 0.7, captured.body.Temperature, 0.001)
	assert.Equal(t, 2048, captured.body.MaxTokens)

	require.Len(t, captured.body.Messages, 2)
	assert.Equal(t, "system", captured.body.Messages[0].Role)
	assert.Equal(t, SummarySystemInstruction, captured.body.Messages[0].Content)
	assert.Equal(t, "user", captured.body.Messages[1].Role)
	assert.Contains(t, captured.body.Messages[1].Content, "alice: 早上好")
	assert.Contains(t, captured.body.Messages[1].Content, "bob: 今天讨论一下发布计划")
	assert.Contains(t, captured.body.Messages[1].Content, "约100字", "short length maps to the 100-word target")
}

func TestMiniMaxSummarizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewMiniMaxClient(testAIConfig(server.URL), discardLogger())
	require.NoError(t, err)

	_, err = client.Summarize(context.Background(), sampleMessages(), database.SummaryLengthMedium, database.LanguageChinese)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestMiniMaxSummarizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices":   []map[string]any{},
			"base_resp": map[string]any{"status_code": 1008, "status_msg": "insufficient balance"},
		})
	}))
	defer server.Close()

	client, err := NewMiniMaxClient(testAIConfig(server.URL), discardLogger())
	require.NoError(t, err)

	_, err = client.Summarize(context.Background(), sampleMessages(), database.SummaryLengthMedium, database.LanguageChinese)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1008")
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestMiniMaxSummarizeNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices":   []map[string]any{},
			"base_resp": map[string]any{"status_code": 0},
		})
	}))
	defer server.Close()

	client, err := NewMiniMaxClient(testAIConfig(server.URL), discardLogger())
	require.NoError(t, err)

	_, err = client.Summarize(context.Background(), sampleMessages(), database.SummaryLengthMedium, database.LanguageChinese)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewMiniMaxClientRequiresToken(t *testing.T) {
	cfg := testAIConfig("http://localhost")
	cfg.Token = ""

	_, err := NewMiniMaxClient(cfg, discardLogger())
	require.Error(t, err)
}

func TestBuildUserPromptLanguageAndLength(t *testing.T) {
	tests := []struct {
		name     string
		length   string
		language string
		want     []string
	}{
		{"short chinese", database.SummaryLengthShort, database.LanguageChinese, []string{"约100字", "请使用中文输出总结"}},
		{"medium english", database.SummaryLengthMedium, database.LanguageEnglish, []string{"约200字", "Write the summary in English"}},
		{"long chinese", database.SummaryLengthLong, database.LanguageChinese, []string{"约400字"}},
		{"unknown falls back to medium", "bogus", database.LanguageChinese, []string{"约200字"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildUserPrompt(sampleMessages(), tt.length, tt.language)
			for _, want := range tt.want {
				assert.Contains(t, prompt, want)
			}
		})
	}
}

func TestFormatTranscriptFallbackName(t *testing.T) {
	got := formatTranscript([]database.Message{{UserID: 42, Content: "hi"}})
	assert.True(t, strings.HasPrefix(got, "用户42: hi"))
}

func TestNewSummarizerUnknownProvider(t *testing.T) {
	cfg := testAIConfig("http://localhost")
	cfg.Provider = "claude"

	_, err := NewSummarizer(context.Background(), cfg, discardLogger())
	require.Error(t, err)
}
