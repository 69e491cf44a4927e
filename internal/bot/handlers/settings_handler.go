package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSettingsHandler returns a handler for the /settings command. The
// registry guards it with GroupOnly and OwnerOnly middleware.
func NewSettingsHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.Handle
}

type settingsHandler struct {
	deps HandlerDeps
}

func (h settingsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "settings")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /settings command", "chat_id", chatID, "user_id", update.Message.From.ID)

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if group == nil {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.NotRegistered)
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        settingsText(group),
		ReplyMarkup: settingsKeyboard(group),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send settings message", "error", err, "chat_id", chatID)
	}
}
