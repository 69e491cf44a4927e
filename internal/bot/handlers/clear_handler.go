package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewClearLogHandler returns a handler for the /clearlog command, which
// wipes the group's recorded message history. Owner-only via middleware.
func NewClearLogHandler(deps HandlerDeps) bot.HandlerFunc {
	return clearLogHandler{deps}.Handle
}

type clearLogHandler struct {
	deps HandlerDeps
}

func (h clearLogHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "clearlog")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	deleted, err := h.deps.Store.ClearMessages(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to clear messages", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Message log cleared", "chat_id", chatID, "deleted", deleted)
	sendText(ctx, b, log, chatID, fmt.Sprintf("🗑️ 已清空 %d 条消息记录", deleted))
}
