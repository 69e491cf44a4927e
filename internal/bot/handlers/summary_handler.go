package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSummaryHandler returns a handler for the /summary command. Eligibility
// is decided by the summary service; the handler adds per-user rate limiting
// and the progress-message dance around the slow external call.
func NewSummaryHandler(deps HandlerDeps) bot.HandlerFunc {
	return summaryHandler{deps}.Handle
}

type summaryHandler struct {
	deps HandlerDeps
}

func (h summaryHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "summary")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	log.InfoContext(ctx, "Handling /summary command", "chat_id", chatID, "user_id", userID)

	if !h.deps.Limiter.Allow(userID) {
		log.WarnContext(ctx, "Summary request rate limited", "chat_id", chatID, "user_id", userID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.RateLimited)
		return
	}

	isOwner, err := h.deps.Store.IsGroupOwner(ctx, chatID, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check group ownership", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	allowed, reason, err := h.deps.Summary.CanGenerate(ctx, userID, chatID, isOwner)
	if err != nil {
		log.ErrorContext(ctx, "Eligibility check failed", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !allowed {
		sendText(ctx, b, log, chatID, "⚠️ "+reason)
		return
	}

	progress, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   h.deps.Config.Messages.Generating,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send progress message", "error", err, "chat_id", chatID)
		return
	}

	text, err := h.deps.Summary.Generate(ctx, userID, chatID, isOwner)
	if err != nil {
		log.ErrorContext(ctx, "Summary generation failed", "error", err, "chat_id", chatID)
		editMessage(ctx, b, log, chatID, progress.ID, h.deps.Config.Messages.GenerationFailed, nil)
		return
	}

	editMessage(ctx, b, log, chatID, progress.ID, text, nil)
}
