// Package config manages application configuration from config.yaml,
// BOT_-prefixed environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via the
// config file or environment variables prefixed with BOT_
// (e.g. BOT_TELEGRAM_TOKEN).
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings. BotInfo is populated at
// startup from GetMe and is not read from the config file.
type TelegramConfig struct {
	Token         string `mapstructure:"token"          validate:"required"`
	WebhookURL    string `mapstructure:"webhook_url"    validate:"omitempty,url"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	ListenAddr    string `mapstructure:"listen_addr"`

	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite path and the message bookkeeping knobs.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`

	// RetentionCap is the maximum number of messages kept per group.
	RetentionCap int64 `mapstructure:"retention_cap" validate:"min=1"`
	// SummaryWindow is the maximum number of recent messages fed to the AI.
	SummaryWindow int `mapstructure:"summary_window" validate:"min=1"`
	// FreeTierMinMessages is the message floor for free-tier summary access.
	FreeTierMinMessages int64 `mapstructure:"free_tier_min_messages" validate:"min=1"`
}

// AIConfig holds the text-generation backend settings.
type AIConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=minimax gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	GroupID     string        `mapstructure:"group_id"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
}

// RateLimitConfig throttles /summary per user.
type RateLimitConfig struct {
	SummaryInterval time.Duration `mapstructure:"summary_interval" validate:"min=1s"`
	SummaryBurst    int           `mapstructure:"summary_burst"    validate:"min=1"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SchedulerConfig maps task names to their cron configuration.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds the user-facing reply strings.
type MessagesConfig struct {
	WelcomeGroup   string `mapstructure:"welcome_group"`
	WelcomePrivate string `mapstructure:"welcome_private"`
	Help           string `mapstructure:"help"`
	Subscribe      string `mapstructure:"subscribe"`

	GroupOnly     string `mapstructure:"group_only"`
	OwnerOnly     string `mapstructure:"owner_only"`
	NotRegistered string `mapstructure:"not_registered"`
	GeneralError  string `mapstructure:"general_error"`
	RateLimited   string `mapstructure:"rate_limited"`

	Generating       string `mapstructure:"generating"`
	GenerationFailed string `mapstructure:"generation_failed"`

	UsageAddPaid  string `mapstructure:"usage_addpaid"`
	InvalidUserID string `mapstructure:"invalid_user_id"`
	InvalidDays   string `mapstructure:"invalid_days"`
}

// Load reads the configuration from the given path, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.listen_addr", ":8080")

	v.SetDefault("database.path", "digestbot.db")
	v.SetDefault("database.retention_cap", 1000)
	v.SetDefault("database.summary_window", 200)
	v.SetDefault("database.free_tier_min_messages", 10)

	v.SetDefault("ai.provider", "minimax")
	v.SetDefault("ai.base_url", "https://api.minimax.chat/v1")
	v.SetDefault("ai.model", "abab6.5s-chat")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2048)
	v.SetDefault("ai.timeout", time.Minute)

	v.SetDefault("rate_limit.summary_interval", time.Minute)
	v.SetDefault("rate_limit.summary_burst", 3)

	v.SetDefault("scheduler.tasks.retention_audit.enabled", true)
	v.SetDefault("scheduler.tasks.retention_audit.schedule", "0 0 * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 30 4 * * *")

	v.SetDefault("messages.welcome_group", "👋 大家好！我是群聊摘要助手！\n\n我可以帮助你们：\n• 📝 自动记录群聊消息\n• 📊 生成群聊摘要\n\n使用方法：\n• /summary - 生成群聊摘要\n• /help - 查看帮助\n\n只有群主可以使用管理功能，快去试试吧！")
	v.SetDefault("messages.welcome_private", "👋 欢迎！\n\n我是群聊摘要助手，可以帮助你：\n• 📝 自动记录群聊消息\n• 📊 使用AI生成群聊摘要\n\n将我添加到你的Telegram群聊即可开始使用！\n\n使用 /help 查看所有命令。")
	v.SetDefault("messages.help", "📖 帮助信息\n\n【可用命令】\n\n🤖 通用命令：\n/start - 欢迎消息\n/help - 查看帮助\n/subscribe - 订阅页面\n\n📝 摘要命令：\n/summary - 生成群聊摘要\n\n⚙️ 群主命令：\n/settings - 群设置\n/addpaid <用户ID> - 添加付费用户\n/removepaid <用户ID> - 移除付费用户\n/paidlist - 付费用户列表\n/clearlog - 清空消息记录\n\n【使用说明】\n\n1. 将Bot添加到群聊\n2. Bot会自动记录消息\n3. 使用 /summary 生成摘要")
	v.SetDefault("messages.subscribe", "💎 订阅服务\n\n【免费版功能】\n• 记录群聊消息\n• 生成摘要（需要10条以上消息）\n\n【付费版功能】\n• 无限制生成摘要\n• 更长的摘要内容\n• 优先处理\n\n【价格】\n• 月付：¥9.9/月\n• 年付：¥99/年\n\n点击下方按钮升级为付费用户！")

	v.SetDefault("messages.group_only", "❌ 此命令只能在群聊中使用")
	v.SetDefault("messages.owner_only", "⚠️ 只有群主可以使用此命令")
	v.SetDefault("messages.not_registered", "❌ 群组未注册，请先发送 /start")
	v.SetDefault("messages.general_error", "❌ 操作失败，请稍后重试")
	v.SetDefault("messages.rate_limited", "⏱️ 请求太频繁，请稍后再试")

	v.SetDefault("messages.generating", "⏳ 正在生成摘要，请稍候...")
	v.SetDefault("messages.generation_failed", "❌ 生成摘要失败，请稍后重试")

	v.SetDefault("messages.usage_addpaid", "📝 用法：/addpaid <用户ID> [天数] [备注名]\n\n示例：\n• /addpaid 123456789 30 (添加30天)\n• /addpaid 123456789 (默认30天)")
	v.SetDefault("messages.invalid_user_id", "❌ 用户ID必须是数字")
	v.SetDefault("messages.invalid_days", "❌ 天数必须是数字")
}
