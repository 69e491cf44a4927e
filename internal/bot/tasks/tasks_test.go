package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

func newTestDeps(t *testing.T, retentionCap int64) (TaskDeps, *database.MockClock) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	clock := &database.MockClock{Current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	deps := TaskDeps{
		Logger: logger,
		Store:  database.NewStoreWithClock(db, logger, clock),
		Config: &config.Config{Database: config.DatabaseConfig{RetentionCap: retentionCap}},
	}
	return deps, clock
}

func TestRetentionAuditTrimsOversizedGroups(t *testing.T) {
	deps, clock := newTestDeps(t, 3)
	ctx := context.Background()

	for i := range 7 {
		clock.Advance(time.Second)
		require.NoError(t, deps.Store.SaveMessage(ctx, &database.Message{
			GroupID: -1, UserID: 1, UserName: "u", Content: fmt.Sprintf("m%d", i),
		}))
	}
	clock.Advance(time.Second)
	require.NoError(t, deps.Store.SaveMessage(ctx, &database.Message{
		GroupID: -2, UserID: 1, UserName: "u", Content: "only one",
	}))

	task := newRetentionAuditTask(deps)
	require.NoError(t, task(ctx))

	count, err := deps.Store.MessageCount(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = deps.Store.MessageCount(ctx, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "groups under the cap are untouched")
}

func TestRetentionAuditNoopWhenUnderCap(t *testing.T) {
	deps, clock := newTestDeps(t, 100)
	ctx := context.Background()

	clock.Advance(time.Second)
	require.NoError(t, deps.Store.SaveMessage(ctx, &database.Message{
		GroupID: -1, UserID: 1, UserName: "u", Content: "hello",
	}))

	task := newRetentionAuditTask(deps)
	require.NoError(t, task(ctx))

	count, err := deps.Store.MessageCount(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLMaintenanceTask(t *testing.T) {
	deps, _ := newTestDeps(t, 100)

	task := newSQLMaintenanceTask(deps)
	require.NoError(t, task(context.Background()))
}
