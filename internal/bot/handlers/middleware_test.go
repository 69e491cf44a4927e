package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjia-li/digestbot/internal/config"
	"github.com/wenjia-li/digestbot/internal/database"
)

// fakeBotAPI captures outgoing Telegram API calls and answers every method
// with a minimal successful sendMessage response.
type fakeBotAPI struct {
	mu     sync.Mutex
	bodies []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":-1,"type":"group"}}}`))
}

// sentBodies joins all captured request bodies. The API transport is
// multipart form, so field values appear as plain text in the body.
func (f *fakeBotAPI) sentBodies() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.bodies, "\n")
}

func newMiddlewareFixture(t *testing.T) (HandlerDeps, *tgbot.Bot, *fakeBotAPI) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.NewDB(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	api := &fakeBotAPI{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	b, err := tgbot.New("123456:TEST", tgbot.WithServerURL(server.URL), tgbot.WithSkipGetMe())
	require.NoError(t, err)

	deps := HandlerDeps{
		Logger: logger,
		Config: &config.Config{Messages: config.MessagesConfig{
			GroupOnly:    "此命令只能在群组中使用",
			OwnerOnly:    "只有群主可以使用此命令",
			GeneralError: "操作失败，请稍后重试",
		}},
		Store: database.NewStore(db, logger),
	}
	return deps, b, api
}

func commandUpdate(chatID, userID int64, chatType models.ChatType) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   1,
		From: &models.User{ID: userID, FirstName: "member"},
		Chat: models.Chat{ID: chatID, Type: chatType},
		Text: "/settings",
	}}
}

func TestOwnerOnlyBlocksNonOwnerMutation(t *testing.T) {
	deps, b, api := newMiddlewareFixture(t)
	ctx := context.Background()

	const groupID, ownerID, memberID = int64(-100), int64(100), int64(200)
	_, err := deps.Store.UpsertGroup(ctx, groupID, "test group", ownerID)
	require.NoError(t, err)

	called := false
	mutate := func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		called = true
		premium := true
		_, err := deps.Store.UpdateGroupSettings(ctx, groupID, database.GroupSettingsUpdate{Premium: &premium})
		require.NoError(t, err)
	}
	guarded := OwnerOnly(deps)(mutate)

	guarded(ctx, b, commandUpdate(groupID, memberID, models.ChatTypeGroup))

	assert.False(t, called, "non-owner must not reach the handler")
	assert.Contains(t, api.sentBodies(), deps.Config.Messages.OwnerOnly)

	group, err := deps.Store.GetGroup(ctx, groupID)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.False(t, group.IsPremium, "store must be unchanged after a denied mutation")

	// The owner passes through and the mutation lands.
	guarded(ctx, b, commandUpdate(groupID, ownerID, models.ChatTypeGroup))
	assert.True(t, called)

	group, err = deps.Store.GetGroup(ctx, groupID)
	require.NoError(t, err)
	assert.True(t, group.IsPremium)
}

func TestGroupOnlyRejectsPrivateChat(t *testing.T) {
	deps, b, api := newMiddlewareFixture(t)
	ctx := context.Background()

	called := false
	guarded := GroupOnly(deps)(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
		called = true
	})

	guarded(ctx, b, commandUpdate(55, 55, models.ChatTypePrivate))
	assert.False(t, called)
	assert.Contains(t, api.sentBodies(), deps.Config.Messages.GroupOnly)

	guarded(ctx, b, commandUpdate(-100, 55, models.ChatTypeSupergroup))
	assert.True(t, called)
}
