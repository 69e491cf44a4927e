// Package summary implements the eligibility policy and the summary
// generation orchestrator.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wenjia-li/digestbot/internal/ai"
	"github.com/wenjia-li/digestbot/internal/database"
)

// User-facing outcome strings. Denials and the empty-log notice are
// returned as regular text; only external failures surface as errors.
const (
	DenyNotRegistered = "群组未注册，请先发送 /start"
	DenyPremiumGroup  = "此群为付费群，请联系群主订阅或成为付费用户"
	NoMessagesText    = "📭 暂无消息记录，无法生成摘要"
)

// Service orchestrates summary generation: it runs the eligibility
// policy, fetches the recent message window, calls the text generation
// backend, and formats the result.
type Service struct {
	store       database.Store
	summarizer  ai.Summarizer
	window      int
	freeTierMin int64
	logger      *slog.Logger
}

// NewService creates a summary Service. window is the maximum number of
// recent messages fed to the model and freeTierMin the message floor
// for free-tier groups.
func NewService(store database.Store, summarizer ai.Summarizer, window int, freeTierMin int64, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		summarizer:  summarizer,
		window:      window,
		freeTierMin: freeTierMin,
		logger:      logger.With("component", "summary"),
	}
}

// CanGenerate decides whether userID may generate a summary in the
// group. The checks form a fixed priority chain: registration, then
// ownership, then active paid status, then the premium gate, and
// finally the free-tier message floor. On denial the second return
// value carries the user-readable reason.
func (s *Service) CanGenerate(ctx context.Context, userID, groupID int64, isOwner bool) (bool, string, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return false, "", err
	}
	if group == nil {
		return false, DenyNotRegistered, nil
	}

	if isOwner {
		return true, "", nil
	}

	paid, err := s.store.IsActivePaidUser(ctx, userID, groupID)
	if err != nil {
		return false, "", err
	}
	if paid {
		return true, "", nil
	}

	if group.IsPremium {
		return false, DenyPremiumGroup, nil
	}

	count, err := s.store.MessageCount(ctx, groupID)
	if err != nil {
		return false, "", err
	}
	if count < s.freeTierMin {
		reason := fmt.Sprintf("消息不足，需要至少%d条消息才能生成摘要（当前: %d条）", s.freeTierMin, count)
		return false, reason, nil
	}

	return true, "", nil
}

// Generate produces the summary text for a group. Eligibility denials
// and an empty message log come back as user-readable text with a nil
// error; only store and backend failures are returned as errors.
func (s *Service) Generate(ctx context.Context, userID, groupID int64, isOwner bool) (string, error) {
	allowed, reason, err := s.CanGenerate(ctx, userID, groupID, isOwner)
	if err != nil {
		return "", err
	}
	if !allowed {
		s.logger.InfoContext(ctx, "Summary request denied",
			"group_id", groupID, "user_id", userID, "reason", reason)
		return reason, nil
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if group == nil {
		return DenyNotRegistered, nil
	}

	messages, err := s.store.RecentMessages(ctx, groupID, s.window)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return NoMessagesText, nil
	}

	text, err := s.summarizer.Summarize(ctx, messages, group.SummaryLength, group.Language)
	if err != nil {
		s.logger.ErrorContext(ctx, "Summary generation failed",
			"group_id", groupID, "message_count", len(messages), "error", err)
		return "", fmt.Errorf("failed to generate summary for group %d: %w", groupID, err)
	}

	s.logger.InfoContext(ctx, "Summary generated",
		"group_id", groupID, "user_id", userID, "message_count", len(messages))
	return FormatResult(text, len(messages)), nil
}

// FormatResult wraps the generated text in the digest frame with the
// count of messages it was based on.
func FormatResult(text string, messageCount int) string {
	return fmt.Sprintf("📊 群聊摘要\n\n%s\n\n━━━━━━━━━━━━━━━━━━\n💬 基于最近 %d 条消息生成", text, messageCount)
}
