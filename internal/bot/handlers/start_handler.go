package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. In a group it
// registers the group with its creator as owner; in a private chat it sends
// the welcome text with the main menu.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chat := update.Message.Chat
	log.InfoContext(ctx, "Handling /start command", "chat_id", chat.ID, "user_id", update.Message.From.ID)

	if !isGroupChat(chat) {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chat.ID,
			Text:        h.deps.Config.Messages.WelcomePrivate,
			ReplyMarkup: mainMenuKeyboard(),
		})
		if err != nil {
			log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chat.ID)
		}
		return
	}

	// The sender may be any member; the group's creator is the owner of
	// record. Fall back to the sender when the admin list is unavailable.
	ownerID := update.Message.From.ID
	admins, err := b.GetChatAdministrators(ctx, &bot.GetChatAdministratorsParams{ChatID: chat.ID})
	if err != nil {
		log.WarnContext(ctx, "Could not fetch chat administrators, using sender as owner",
			"error", err, "chat_id", chat.ID)
	} else {
		for _, m := range admins {
			if m.Type == models.ChatMemberTypeOwner && m.Owner != nil {
				ownerID = m.Owner.User.ID
				break
			}
		}
	}

	groupName := chat.Title
	if groupName == "" {
		groupName = "Unknown Group"
	}

	if _, err := h.deps.Store.UpsertGroup(ctx, chat.ID, groupName, ownerID); err != nil {
		log.ErrorContext(ctx, "Failed to register group", "error", err, "chat_id", chat.ID)
		sendText(ctx, b, log, chat.ID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Group registered", "chat_id", chat.ID, "owner_id", ownerID)
	sendText(ctx, b, log, chat.ID, h.deps.Config.Messages.WelcomeGroup)
}
