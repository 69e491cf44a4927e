package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewSubscribeHandler returns a handler for the /subscribe command. Usable
// in both group and private chats.
func NewSubscribeHandler(deps HandlerDeps) bot.HandlerFunc {
	return subscribeHandler{deps}.Handle
}

type subscribeHandler struct {
	deps HandlerDeps
}

func (h subscribeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "subscribe")

	if update.Message == nil {
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        h.deps.Config.Messages.Subscribe,
		ReplyMarkup: subscribeKeyboard(),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send subscribe message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
