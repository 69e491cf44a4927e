package handlers

import (
	"log/slog"

	"github.com/wenjia-li/digestbot/internal/chatlog"
	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
	"github.com/wenjia-li/digestbot/internal/summary"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Recorder *chatlog.Recorder
	Summary  *summary.Service
	Limiter  *SummaryLimiter
}
