// Package tasks implements the bot's scheduled background tasks: the
// retention audit and SQLite maintenance.
package tasks

import (
	"log/slog"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
