package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (Store, *MockClock) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := NewDB(":memory:", logger)
	require.NoError(t, err, "opening in-memory database")
	t.Cleanup(func() { _ = CloseDB(db) })

	clock := &MockClock{Current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewStoreWithClock(db, logger, clock), clock
}

func TestUpsertGroup(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	group, err := store.UpsertGroup(ctx, -100123, "Test Group", 42)
	require.NoError(t, err)
	require.NotNil(t, group)
	assert.Equal(t, int64(-100123), group.GroupID)
	assert.Equal(t, "Test Group", group.GroupName)
	assert.Equal(t, int64(42), group.OwnerID)
	assert.False(t, group.IsPremium)
	assert.Equal(t, SummaryLengthMedium, group.SummaryLength)
	assert.Equal(t, LanguageChinese, group.Language)

	// Re-registering updates name and owner but preserves settings.
	premium := true
	updated, err := store.UpdateGroupSettings(ctx, -100123, GroupSettingsUpdate{Premium: &premium})
	require.NoError(t, err)
	assert.True(t, updated)

	group, err = store.UpsertGroup(ctx, -100123, "Renamed Group", 43)
	require.NoError(t, err)
	assert.Equal(t, "Renamed Group", group.GroupName)
	assert.Equal(t, int64(43), group.OwnerID)
	assert.True(t, group.IsPremium, "premium flag must survive re-registration")
}

func TestGetGroupNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	group, err := store.GetGroup(context.Background(), -999)
	require.NoError(t, err)
	assert.Nil(t, group, "unknown group must yield nil without error")
}

func TestUpdateGroupSettings(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertGroup(ctx, -1, "G", 1)
	require.NoError(t, err)

	t.Run("partial update", func(t *testing.T) {
		length := SummaryLengthLong
		ok, err := store.UpdateGroupSettings(ctx, -1, GroupSettingsUpdate{SummaryLength: &length})
		require.NoError(t, err)
		assert.True(t, ok)

		group, err := store.GetGroup(ctx, -1)
		require.NoError(t, err)
		assert.Equal(t, SummaryLengthLong, group.SummaryLength)
		assert.Equal(t, LanguageChinese, group.Language, "untouched fields keep their values")
	})

	t.Run("invalid length rejected", func(t *testing.T) {
		bad := "gigantic"
		ok, err := store.UpdateGroupSettings(ctx, -1, GroupSettingsUpdate{SummaryLength: &bad})
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid language rejected", func(t *testing.T) {
		bad := "fr"
		ok, err := store.UpdateGroupSettings(ctx, -1, GroupSettingsUpdate{Language: &bad})
		require.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		ok, err := store.UpdateGroupSettings(ctx, -1, GroupSettingsUpdate{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown group", func(t *testing.T) {
		premium := true
		ok, err := store.UpdateGroupSettings(ctx, -404, GroupSettingsUpdate{Premium: &premium})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestIsGroupOwner(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertGroup(ctx, -1, "G", 7)
	require.NoError(t, err)

	owner, err := store.IsGroupOwner(ctx, -1, 7)
	require.NoError(t, err)
	assert.True(t, owner)

	owner, err = store.IsGroupOwner(ctx, -1, 8)
	require.NoError(t, err)
	assert.False(t, owner)

	owner, err = store.IsGroupOwner(ctx, -404, 7)
	require.NoError(t, err)
	assert.False(t, owner, "unknown group has no owner")
}

func TestPaidUserLifecycle(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	now := clock.Now()

	require.NoError(t, store.AddOrRenewPaidUser(ctx, 10, "alice", -1, now.Add(24*time.Hour)))
	require.NoError(t, store.AddOrRenewPaidUser(ctx, 11, "bob", -1, now.Add(48*time.Hour)))

	t.Run("renewal keeps a single row", func(t *testing.T) {
		require.NoError(t, store.AddOrRenewPaidUser(ctx, 10, "alice2", -1, now.Add(720*time.Hour)))

		users, err := store.ListPaidUsers(ctx, -1)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, int64(10), users[0].UserID, "renewed grant has latest expiry and sorts first")
		assert.Equal(t, "alice2", users[0].UserName)
	})

	t.Run("same user in another group is independent", func(t *testing.T) {
		require.NoError(t, store.AddOrRenewPaidUser(ctx, 10, "alice", -2, now.Add(time.Hour)))

		users, err := store.ListPaidUsers(ctx, -2)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("remove", func(t *testing.T) {
		removed, err := store.RemovePaidUser(ctx, 11, -1)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.RemovePaidUser(ctx, 11, -1)
		require.NoError(t, err)
		assert.False(t, removed, "second removal affects nothing")
	})
}

func TestIsActivePaidUserStrictExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	expiry := clock.Now().Add(time.Hour)
	require.NoError(t, store.AddOrRenewPaidUser(ctx, 10, "alice", -1, expiry))

	active, err := store.IsActivePaidUser(ctx, 10, -1)
	require.NoError(t, err)
	assert.True(t, active)

	// Exactly at expiry the grant is already inactive.
	clock.Advance(time.Hour)
	active, err = store.IsActivePaidUser(ctx, 10, -1)
	require.NoError(t, err)
	assert.False(t, active, "grant expiring exactly now must be inactive")

	active, err = store.IsActivePaidUser(ctx, 99, -1)
	require.NoError(t, err)
	assert.False(t, active, "user without a grant is inactive")
}

func TestPaidGrantActiveForItsWholeDuration(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	// A 15-day grant is active immediately after being written.
	expiry := clock.Now().Add(15 * 24 * time.Hour)
	require.NoError(t, store.AddOrRenewPaidUser(ctx, 555, "bob", -1, expiry))

	active, err := store.IsActivePaidUser(ctx, 555, -1)
	require.NoError(t, err)
	assert.True(t, active)

	users, err := store.ListPaidUsers(ctx, -1)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].ExpiresAt.Equal(expiry))

	clock.Advance(15*24*time.Hour - time.Second)
	active, err = store.IsActivePaidUser(ctx, 555, -1)
	require.NoError(t, err)
	assert.True(t, active, "grant is active up to the last second")

	clock.Advance(time.Second)
	active, err = store.IsActivePaidUser(ctx, 555, -1)
	require.NoError(t, err)
	assert.False(t, active)
}

func saveMessages(t *testing.T, store Store, clock *MockClock, groupID int64, count int) {
	t.Helper()
	for i := range count {
		clock.Advance(time.Second)
		err := store.SaveMessage(context.Background(), &Message{
			GroupID:  groupID,
			UserID:   int64(100 + i),
			UserName: fmt.Sprintf("user%d", i),
			Content:  fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}
}

func TestSaveMessageValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SaveMessage(ctx, nil))
	assert.Error(t, store.SaveMessage(ctx, &Message{UserID: 1, Content: "x"}))
	assert.Error(t, store.SaveMessage(ctx, &Message{GroupID: -1, UserID: 1}))

	msg := &Message{GroupID: -1, UserID: 1, UserName: "u", Content: "hello"}
	require.NoError(t, store.SaveMessage(ctx, msg))
	assert.NotZero(t, msg.ID, "insert must backfill the row ID")
	assert.False(t, msg.Timestamp.IsZero(), "zero timestamp filled from clock")
}

func TestRecentMessagesOrder(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	saveMessages(t, store, clock, -1, 5)

	msgs, err := store.RecentMessages(ctx, -1, 3)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "message 2", msgs[0].Content, "oldest of the window comes first")
	assert.Equal(t, "message 4", msgs[2].Content)

	msgs, err = store.RecentMessages(ctx, -1, 100)
	require.NoError(t, err)
	assert.Len(t, msgs, 5, "limit beyond count returns all messages")

	msgs, err = store.RecentMessages(ctx, -1, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTrimToMostRecent(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	saveMessages(t, store, clock, -1, 10)
	saveMessages(t, store, clock, -2, 3)

	deleted, err := store.TrimToMostRecent(ctx, -1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), deleted)

	count, err := store.MessageCount(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	msgs, err := store.RecentMessages(ctx, -1, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "message 6", msgs[0].Content, "survivors are the newest messages")
	assert.Equal(t, "message 9", msgs[3].Content)

	count, err = store.MessageCount(ctx, -2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "other groups untouched")

	deleted, err = store.TrimToMostRecent(ctx, -404, 4)
	require.NoError(t, err)
	assert.Zero(t, deleted, "empty group trims nothing")
}

func TestClearMessages(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	saveMessages(t, store, clock, -1, 3)

	deleted, err := store.ClearMessages(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	count, err := store.MessageCount(ctx, -1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGroupsOverCap(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	saveMessages(t, store, clock, -1, 5)
	saveMessages(t, store, clock, -2, 2)

	over, err := store.GroupsOverCap(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1}, over)

	over, err = store.GroupsOverCap(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, over)
}

func TestRunMaintenance(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.RunMaintenance(context.Background()))
}
