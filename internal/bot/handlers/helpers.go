// Package handlers contains Telegram bot command and callback handlers,
// along with their registration logic and middleware.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wenjia-li/digestbot/internal/database"
)

func isGroupChat(chat models.Chat) bool {
	return chat.Type == models.ChatTypeGroup || chat.Type == models.ChatTypeSupergroup
}

// sendText sends a plain text reply to a chat, logging failures.
func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// displayName builds a user-facing name from a Telegram user record.
func displayName(user *models.User) string {
	if user == nil {
		return ""
	}
	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}
	return strings.TrimSpace(name)
}

func settingsText(group *database.Group) string {
	return fmt.Sprintf("⚙️ 群设置\n\n群组：%s\n摘要长度：%s\n语言：%s\n\n选择下方按钮进行设置：",
		group.GroupName, group.SummaryLength, group.Language)
}

// callbackMessage extracts the accessible message a callback query was
// attached to. Returns nil for inaccessible (too old) messages.
func callbackMessage(update *models.Update) *models.Message {
	if update.CallbackQuery == nil {
		return nil
	}
	return update.CallbackQuery.Message.Message
}

// answerCallback acknowledges a callback query, optionally with an alert.
func answerCallback(ctx context.Context, b *bot.Bot, log *slog.Logger, queryID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

// editMessage replaces the text and keyboard of an existing message.
func editMessage(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}
