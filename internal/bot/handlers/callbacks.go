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

// NewCallbackHandler returns the single router for all inline keyboard
// callback queries. Patterns overlap (menu actions, settings prefixes,
// removal buttons), so routing happens here instead of in the registry.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	msg := callbackMessage(update)
	if msg == nil {
		log.WarnContext(ctx, "Callback query on inaccessible message", "data", cb.Data)
		answerCallback(ctx, b, log, cb.ID, "", false)
		return
	}

	chatID := msg.Chat.ID
	userID := cb.From.ID
	data := cb.Data
	log.DebugContext(ctx, "Handling callback query", "data", data, "chat_id", chatID, "user_id", userID)

	switch {
	case data == cbActionSummary:
		answerCallback(ctx, b, log, cb.ID, "请在群聊中使用 /summary 命令生成摘要", true)

	case data == cbActionHelp:
		editMessage(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.Help, mainMenuKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbActionSubscribe:
		editMessage(ctx, b, log, chatID, msg.ID, h.deps.Config.Messages.Subscribe, subscribeKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbSubscribeUpgrade:
		answerCallback(ctx, b, log, cb.ID, "💳 支付功能开发中...\n\n请联系群主手动添加付费用户！", true)

	case data == cbBackToMain:
		text := fmt.Sprintf("👋 欢迎 %s!\n\n请选择功能：", displayName(&cb.From))
		editMessage(ctx, b, log, chatID, msg.ID, text, mainMenuKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbActionSettings:
		h.showSettings(ctx, b, cb, chatID, userID, msg.ID)

	case data == cbSettingsLength:
		if !h.requireOwner(ctx, b, cb, chatID, userID) {
			return
		}
		editMessage(ctx, b, log, chatID, msg.ID, "📏 选择摘要长度：", summaryLengthKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbSettingsLanguage:
		if !h.requireOwner(ctx, b, cb, chatID, userID) {
			return
		}
		editMessage(ctx, b, log, chatID, msg.ID, "🌐 选择语言：", languageKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbSettingsPremium:
		if !h.requireOwner(ctx, b, cb, chatID, userID) {
			return
		}
		editMessage(ctx, b, log, chatID, msg.ID, "💎 付费群开启后，仅群主和付费用户可以生成摘要：", premiumKeyboard())
		answerCallback(ctx, b, log, cb.ID, "", false)

	case data == cbPremiumOn, data == cbPremiumOff:
		premium := data == cbPremiumOn
		confirmation := "✅ 已关闭付费群"
		if premium {
			confirmation = "✅ 已开启付费群"
		}
		h.applySetting(ctx, b, cb, chatID, userID, msg.ID,
			database.GroupSettingsUpdate{Premium: &premium}, confirmation)

	case strings.HasPrefix(data, cbLengthPrefix):
		length := strings.TrimPrefix(data, cbLengthPrefix)
		h.applySetting(ctx, b, cb, chatID, userID, msg.ID,
			database.GroupSettingsUpdate{SummaryLength: &length},
			fmt.Sprintf("✅ 摘要长度已设置为 %s", length))

	case strings.HasPrefix(data, cbLangPrefix):
		language := strings.TrimPrefix(data, cbLangPrefix)
		h.applySetting(ctx, b, cb, chatID, userID, msg.ID,
			database.GroupSettingsUpdate{Language: &language},
			fmt.Sprintf("✅ 语言已设置为 %s", language))

	case strings.HasPrefix(data, cbRemovePaidPrefix):
		h.removePaid(ctx, b, cb, chatID, userID, msg.ID, strings.TrimPrefix(data, cbRemovePaidPrefix))

	default:
		log.WarnContext(ctx, "Unknown callback data", "data", data)
		answerCallback(ctx, b, log, cb.ID, "", false)
	}
}

// requireOwner answers the callback with an alert and returns false when the
// caller is not the registered group owner.
func (h callbackHandler) requireOwner(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery, chatID, userID int64) bool {
	log := h.deps.Logger.With("handler", "callback")

	isOwner, err := h.deps.Store.IsGroupOwner(ctx, chatID, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check group ownership", "error", err, "chat_id", chatID)
		answerCallback(ctx, b, log, cb.ID, h.deps.Config.Messages.GeneralError, true)
		return false
	}
	if !isOwner {
		answerCallback(ctx, b, log, cb.ID, "只有群主可以设置", true)
		return false
	}
	return true
}

func (h callbackHandler) showSettings(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery, chatID, userID int64, messageID int) {
	log := h.deps.Logger.With("handler", "callback")

	if !h.requireOwner(ctx, b, cb, chatID, userID) {
		return
	}

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load group", "error", err, "chat_id", chatID)
		answerCallback(ctx, b, log, cb.ID, h.deps.Config.Messages.GeneralError, true)
		return
	}
	if group == nil {
		answerCallback(ctx, b, log, cb.ID, "群组未注册", true)
		return
	}

	editMessage(ctx, b, log, chatID, messageID, settingsText(group), settingsKeyboard(group))
	answerCallback(ctx, b, log, cb.ID, "", false)
}

// applySetting writes one settings field and redraws the settings view.
func (h callbackHandler) applySetting(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery, chatID, userID int64, messageID int, upd database.GroupSettingsUpdate, confirmation string) {
	log := h.deps.Logger.With("handler", "callback")

	if !h.requireOwner(ctx, b, cb, chatID, userID) {
		return
	}

	changed, err := h.deps.Store.UpdateGroupSettings(ctx, chatID, upd)
	if err != nil {
		log.ErrorContext(ctx, "Failed to update group settings", "error", err, "chat_id", chatID)
		answerCallback(ctx, b, log, cb.ID, h.deps.Config.Messages.GeneralError, true)
		return
	}
	if !changed {
		answerCallback(ctx, b, log, cb.ID, "群组未注册", true)
		return
	}

	group, err := h.deps.Store.GetGroup(ctx, chatID)
	if err != nil || group == nil {
		log.ErrorContext(ctx, "Failed to reload group after settings update", "error", err, "chat_id", chatID)
		answerCallback(ctx, b, log, cb.ID, confirmation, false)
		return
	}

	editMessage(ctx, b, log, chatID, messageID, settingsText(group), settingsKeyboard(group))
	answerCallback(ctx, b, log, cb.ID, confirmation, false)
}

func (h callbackHandler) removePaid(ctx context.Context, b *bot.Bot, cb *models.CallbackQuery, chatID, userID int64, messageID int, rawTargetID string) {
	log := h.deps.Logger.With("handler", "callback")

	isOwner, err := h.deps.Store.IsGroupOwner(ctx, chatID, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check group ownership", "error", err, "chat_id", chatID)
		answerCallback(ctx, b, log, cb.ID, h.deps.Config.Messages.GeneralError, true)
		return
	}
	if !isOwner {
		answerCallback(ctx, b, log, cb.ID, "只有群主可以操作", true)
		return
	}

	targetID, err := strconv.ParseInt(rawTargetID, 10, 64)
	if err != nil {
		answerCallback(ctx, b, log, cb.ID, "无效的用户ID", true)
		return
	}

	removed, err := h.deps.Store.RemovePaidUser(ctx, targetID, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to remove paid user", "error", err, "chat_id", chatID, "target_id", targetID)
		answerCallback(ctx, b, log, cb.ID, h.deps.Config.Messages.GeneralError, true)
		return
	}
	if !removed {
		answerCallback(ctx, b, log, cb.ID, "❌ 移除失败", true)
		return
	}

	answerCallback(ctx, b, log, cb.ID, "✅ 已移除付费用户", true)

	// Redraw the paid user list the button lived on.
	users, err := h.deps.Store.ListPaidUsers(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to reload paid users", "error", err, "chat_id", chatID)
		return
	}
	if len(users) == 0 {
		editMessage(ctx, b, log, chatID, messageID, "📭 暂无付费用户", nil)
		return
	}
	editMessage(ctx, b, log, chatID, messageID, formatPaidList(users, time.Now().UTC()), paidListKeyboard(users))
}
