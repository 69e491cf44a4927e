package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// GroupOnly creates a middleware that rejects commands issued outside of
// group and supergroup chats.
func GroupOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			if !isGroupChat(update.Message.Chat) {
				log := deps.Logger.With("middleware", "GroupOnly")
				sendText(ctx, bot, log, update.Message.Chat.ID, deps.Config.Messages.GroupOnly)
				return
			}

			next(ctx, bot, update)
		}
	}
}

// OwnerOnly creates a middleware that checks whether the message sender is
// the registered owner of the group the command was issued in. Non-owners
// get a fixed denial and processing stops.
func OwnerOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, bot, update)
				return
			}

			chatID := update.Message.Chat.ID
			userID := update.Message.From.ID
			log := deps.Logger.With("middleware", "OwnerOnly")

			isOwner, err := deps.Store.IsGroupOwner(ctx, chatID, userID)
			if err != nil {
				log.ErrorContext(ctx, "Failed to check group ownership", "error", err, "chat_id", chatID, "user_id", userID)
				sendText(ctx, bot, log, chatID, deps.Config.Messages.GeneralError)
				return
			}
			if !isOwner {
				log.WarnContext(ctx, "Owner-only command from non-owner", "chat_id", chatID, "user_id", userID)
				sendText(ctx, bot, log, chatID, deps.Config.Messages.OwnerOnly)
				return
			}

			next(ctx, bot, update)
		}
	}
}
