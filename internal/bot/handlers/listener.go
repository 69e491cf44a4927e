package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMessageListener returns the default handler that records ordinary
// group messages into the chat log. Commands, bot messages, and private
// chats are ignored.
func NewMessageListener(deps HandlerDeps) bot.HandlerFunc {
	return messageListener{deps}.Handle
}

type messageListener struct {
	deps HandlerDeps
}

// messageText merges a message's text and caption so a media message with
// both is logged as a single line.
func messageText(msg *models.Message) string {
	return strings.TrimSpace(strings.TrimSpace(msg.Text) + " " + strings.TrimSpace(msg.Caption))
}

func (h messageListener) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "listener")

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !isGroupChat(msg.Chat) {
		return
	}
	if msg.From.IsBot {
		return
	}

	text := messageText(msg)
	if text == "" || strings.HasPrefix(text, "/") {
		return
	}

	err := h.deps.Recorder.Record(ctx, msg.Chat.ID, msg.From.ID, displayName(msg.From), text)
	if err != nil {
		log.ErrorContext(ctx, "Failed to record message", "error", err,
			"chat_id", msg.Chat.ID, "user_id", msg.From.ID)
	}
}
