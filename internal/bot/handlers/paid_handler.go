package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/wenjia-li/digestbot/internal/database"
)

const defaultPaidDays = 30

// addPaidArgs is the parsed form of an /addpaid invocation.
type addPaidArgs struct {
	UserID   int64
	Days     int
	UserName string
}

// Sentinel parse failures mapped to user-facing replies by the handler.
var (
	errUsage         = fmt.Errorf("missing arguments")
	errInvalidUserID = fmt.Errorf("user ID is not numeric")
	errInvalidDays   = fmt.Errorf("day count is not numeric")
)

// parseAddPaidArgs splits "/addpaid <userID> [days] [name...]" on
// whitespace. Days defaults to 30; a missing name is left empty for the
// handler to resolve from Telegram.
func parseAddPaidArgs(text string) (addPaidArgs, error) {
	args := strings.Fields(text)
	if len(args) < 2 {
		return addPaidArgs{}, errUsage
	}

	userID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return addPaidArgs{}, errInvalidUserID
	}

	parsed := addPaidArgs{UserID: userID, Days: defaultPaidDays}
	if len(args) >= 3 {
		days, err := strconv.Atoi(args[2])
		if err != nil {
			return addPaidArgs{}, errInvalidDays
		}
		parsed.Days = days
	}
	if len(args) >= 4 {
		parsed.UserName = strings.Join(args[3:], " ")
	}
	return parsed, nil
}

// formatPaidList renders the paid user roster with per-entry expiry status.
func formatPaidList(users []database.PaidUser, now time.Time) string {
	lines := []string{"💎 付费用户列表\n"}
	for i, u := range users {
		status := "🟢 有效"
		if !u.Active(now) {
			status = "🔴 已过期"
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%d)\n   📅 过期：%s %s",
			i+1, u.UserName, u.UserID, u.ExpiresAt.Format("2006-01-02"), status))
	}
	lines = append(lines, fmt.Sprintf("\n━━━━━━━━━━━━━━━━━━\n共 %d 位付费用户", len(users)))
	return strings.Join(lines, "\n")
}

// NewAddPaidHandler returns a handler for the /addpaid command.
func NewAddPaidHandler(deps HandlerDeps) bot.HandlerFunc {
	return addPaidHandler{deps}.Handle
}

type addPaidHandler struct {
	deps HandlerDeps
}

func (h addPaidHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "addpaid")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	parsed, err := parseAddPaidArgs(update.Message.Text)
	switch err {
	case nil:
	case errUsage:
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.UsageAddPaid)
		return
	case errInvalidUserID:
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.InvalidUserID)
		return
	case errInvalidDays:
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.InvalidDays)
		return
	default:
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	userName := parsed.UserName
	if userName == "" {
		userName = fmt.Sprintf("User_%d", parsed.UserID)
		member, err := b.GetChatMember(ctx, &bot.GetChatMemberParams{ChatID: chatID, UserID: parsed.UserID})
		if err != nil {
			log.DebugContext(ctx, "Could not resolve member name", "error", err, "target_id", parsed.UserID)
		} else if u := memberUser(member); u != nil {
			if name := displayName(u); name != "" {
				userName = name
			}
		}
	}

	expiresAt := time.Now().UTC().Add(time.Duration(parsed.Days) * 24 * time.Hour)
	if err := h.deps.Store.AddOrRenewPaidUser(ctx, parsed.UserID, userName, chatID, expiresAt); err != nil {
		log.ErrorContext(ctx, "Failed to add paid user", "error", err, "chat_id", chatID, "target_id", parsed.UserID)
		sendText(ctx, b, log, chatID, "❌ 添加付费用户失败")
		return
	}

	log.InfoContext(ctx, "Paid user added", "chat_id", chatID, "target_id", parsed.UserID, "days", parsed.Days)
	sendText(ctx, b, log, chatID, fmt.Sprintf(
		"✅ 已添加付费用户\n\n👤 用户：%s (ID: %d)\n📅 过期时间：%s\n⏱️ 时长：%d天",
		userName, parsed.UserID, expiresAt.Format("2006-01-02"), parsed.Days))
}

// memberUser extracts the user record from whichever member variant the API
// returned.
func memberUser(m *models.ChatMember) *models.User {
	if m == nil {
		return nil
	}
	switch {
	case m.Owner != nil:
		return m.Owner.User
	case m.Administrator != nil:
		return &m.Administrator.User
	case m.Member != nil:
		return m.Member.User
	case m.Restricted != nil:
		return m.Restricted.User
	case m.Left != nil:
		return m.Left.User
	case m.Banned != nil:
		return m.Banned.User
	}
	return nil
}

// NewRemovePaidHandler returns a handler for the /removepaid command.
func NewRemovePaidHandler(deps HandlerDeps) bot.HandlerFunc {
	return removePaidHandler{deps}.Handle
}

type removePaidHandler struct {
	deps HandlerDeps
}

func (h removePaidHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "removepaid")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := strings.Fields(update.Message.Text)
	if len(args) < 2 {
		sendText(ctx, b, log, chatID, "📝 用法：/removepaid <用户ID>")
		return
	}
	targetID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.InvalidUserID)
		return
	}

	removed, err := h.deps.Store.RemovePaidUser(ctx, targetID, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to remove paid user", "error", err, "chat_id", chatID, "target_id", targetID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if !removed {
		sendText(ctx, b, log, chatID, "❌ 该用户不在付费用户列表中")
		return
	}

	log.InfoContext(ctx, "Paid user removed", "chat_id", chatID, "target_id", targetID)
	sendText(ctx, b, log, chatID, fmt.Sprintf("✅ 已移除付费用户 %d", targetID))
}

// NewPaidListHandler returns a handler for the /paidlist command.
func NewPaidListHandler(deps HandlerDeps) bot.HandlerFunc {
	return paidListHandler{deps}.Handle
}

type paidListHandler struct {
	deps HandlerDeps
}

func (h paidListHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "paidlist")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	users, err := h.deps.Store.ListPaidUsers(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list paid users", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if len(users) == 0 {
		sendText(ctx, b, log, chatID, "📭 暂无付费用户")
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        formatPaidList(users, time.Now().UTC()),
		ReplyMarkup: paidListKeyboard(users),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send paid user list", "error", err, "chat_id", chatID)
	}
}
