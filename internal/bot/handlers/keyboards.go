package handlers

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/wenjia-li/digestbot/internal/database"
)

// Callback data values understood by the callback handlers.
const (
	cbActionSummary   = "action_summary"
	cbActionSettings  = "action_settings"
	cbActionSubscribe = "action_subscribe"
	cbActionHelp      = "action_help"
	cbBackToMain      = "back_to_main"

	cbSettingsLength   = "settings_length"
	cbSettingsLanguage = "settings_language"
	cbSettingsPremium  = "settings_premium"
	cbLengthPrefix     = "length_"
	cbLangPrefix       = "lang_"
	cbPremiumOn        = "premium_on"
	cbPremiumOff       = "premium_off"

	cbSubscribeUpgrade = "subscribe_upgrade"
	cbRemovePaidPrefix = "remove_paid_"
)

func mainMenuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📝 生成摘要", CallbackData: cbActionSummary},
				{Text: "⚙️ 设置", CallbackData: cbActionSettings},
			},
			{
				{Text: "💳 订阅", CallbackData: cbActionSubscribe},
				{Text: "❓ 帮助", CallbackData: cbActionHelp},
			},
		},
	}
}

func settingsKeyboard(group *database.Group) *models.InlineKeyboardMarkup {
	lengthText := map[string]string{
		database.SummaryLengthShort:  "🔴 短",
		database.SummaryLengthMedium: "🟡 中",
		database.SummaryLengthLong:   "🟢 长",
	}[group.SummaryLength]
	if lengthText == "" {
		lengthText = "🟡 中"
	}

	langText := "🇨🇳 中文"
	if group.Language == database.LanguageEnglish {
		langText = "🇺🇸 English"
	}

	premiumText := "关"
	if group.IsPremium {
		premiumText = "开"
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: fmt.Sprintf("📏 摘要长度: %s", lengthText), CallbackData: cbSettingsLength}},
			{{Text: fmt.Sprintf("🌐 语言: %s", langText), CallbackData: cbSettingsLanguage}},
			{{Text: fmt.Sprintf("💎 付费群: %s", premiumText), CallbackData: cbSettingsPremium}},
			{{Text: "« 返回", CallbackData: cbBackToMain}},
		},
	}
}

func premiumKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💎 开启付费群", CallbackData: cbPremiumOn},
				{Text: "🔓 关闭付费群", CallbackData: cbPremiumOff},
			},
			{{Text: "« 返回", CallbackData: cbActionSettings}},
		},
	}
}

func summaryLengthKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🔴 短 (100字)", CallbackData: cbLengthPrefix + database.SummaryLengthShort},
				{Text: "🟡 中 (200字)", CallbackData: cbLengthPrefix + database.SummaryLengthMedium},
				{Text: "🟢 长 (400字)", CallbackData: cbLengthPrefix + database.SummaryLengthLong},
			},
			{{Text: "« 返回", CallbackData: cbActionSettings}},
		},
	}
}

func languageKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "🇨🇳 中文", CallbackData: cbLangPrefix + database.LanguageChinese},
				{Text: "🇺🇸 English", CallbackData: cbLangPrefix + database.LanguageEnglish},
			},
			{{Text: "« 返回", CallbackData: cbActionSettings}},
		},
	}
}

func subscribeKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "💎 升级为付费用户", CallbackData: cbSubscribeUpgrade}},
			{{Text: "« 返回", CallbackData: cbBackToMain}},
		},
	}
}

// paidListKeyboard offers one removal button per paid user.
func paidListKeyboard(users []database.PaidUser) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(users))
	for _, u := range users {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("❌ 移除 %s", u.UserName),
			CallbackData: fmt.Sprintf("%s%d", cbRemovePaidPrefix, u.UserID),
		}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
