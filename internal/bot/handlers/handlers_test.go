package handlers

import (
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wenjia-li/digestbot/internal/database"
)

func TestParseAddPaidArgs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    addPaidArgs
		wantErr error
	}{
		{
			name: "id only defaults to 30 days",
			text: "/addpaid 123456789",
			want: addPaidArgs{UserID: 123456789, Days: 30},
		},
		{
			name: "id and days",
			text: "/addpaid 123456789 90",
			want: addPaidArgs{UserID: 123456789, Days: 90},
		},
		{
			name: "explicit name with spaces",
			text: "/addpaid 123456789 7 张 三",
			want: addPaidArgs{UserID: 123456789, Days: 7, UserName: "张 三"},
		},
		{
			name:    "missing arguments",
			text:    "/addpaid",
			wantErr: errUsage,
		},
		{
			name:    "non-numeric user id",
			text:    "/addpaid abc",
			wantErr: errInvalidUserID,
		},
		{
			name:    "non-numeric days",
			text:    "/addpaid 123456789 soon",
			wantErr: errInvalidDays,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAddPaidArgs(tt.text)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPaidList(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	users := []database.PaidUser{
		{UserID: 10, UserName: "alice", ExpiresAt: now.Add(24 * time.Hour)},
		{UserID: 11, UserName: "bob", ExpiresAt: now.Add(-24 * time.Hour)},
	}

	got := formatPaidList(users, now)
	assert.Contains(t, got, "💎 付费用户列表")
	assert.Contains(t, got, "1. alice (10)")
	assert.Contains(t, got, "🟢 有效")
	assert.Contains(t, got, "2. bob (11)")
	assert.Contains(t, got, "🔴 已过期")
	assert.Contains(t, got, "共 2 位付费用户")
	assert.Contains(t, got, "2025-06-02")
}

func TestSummaryLimiter(t *testing.T) {
	limiter := NewSummaryLimiter(time.Hour, 2)

	assert.True(t, limiter.Allow(1))
	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1), "burst exhausted within the interval")

	assert.True(t, limiter.Allow(2), "users are throttled independently")
}

func TestSummaryLimiterEvictsIdleEntries(t *testing.T) {
	limiter := NewSummaryLimiter(time.Minute, 1)
	current := time.Now()
	limiter.now = func() time.Time { return current }

	require.True(t, limiter.Allow(1))
	require.False(t, limiter.Allow(1))

	// User 1 goes idle long enough for the bucket to refill; the next call
	// from anyone sweeps the map.
	current = current.Add(limiter.idleTTL)
	require.True(t, limiter.Allow(2))

	limiter.mu.Lock()
	_, user1Kept := limiter.limiters[1]
	_, user2Kept := limiter.limiters[2]
	limiter.mu.Unlock()
	assert.False(t, user1Kept, "idle entry is evicted")
	assert.True(t, user2Kept)

	// Eviction never grants more than a fresh bucket would.
	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))
}

func TestMemberUserExtractsEveryVariant(t *testing.T) {
	tests := []struct {
		name   string
		member *models.ChatMember
		wantID int64
	}{
		{name: "owner", member: &models.ChatMember{Owner: &models.ChatMemberOwner{User: &models.User{ID: 1}}}, wantID: 1},
		{name: "administrator", member: &models.ChatMember{Administrator: &models.ChatMemberAdministrator{User: models.User{ID: 2}}}, wantID: 2},
		{name: "member", member: &models.ChatMember{Member: &models.ChatMemberMember{User: &models.User{ID: 3}}}, wantID: 3},
		{name: "restricted", member: &models.ChatMember{Restricted: &models.ChatMemberRestricted{User: &models.User{ID: 4}}}, wantID: 4},
		{name: "left", member: &models.ChatMember{Left: &models.ChatMemberLeft{User: &models.User{ID: 5}}}, wantID: 5},
		{name: "banned", member: &models.ChatMember{Banned: &models.ChatMemberBanned{User: &models.User{ID: 6}}}, wantID: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := memberUser(tt.member)
			require.NotNil(t, user)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}

	assert.Nil(t, memberUser(nil))
	assert.Nil(t, memberUser(&models.ChatMember{}))
}

func TestSettingsText(t *testing.T) {
	group := &database.Group{
		GroupName:     "测试群",
		SummaryLength: database.SummaryLengthLong,
		Language:      database.LanguageEnglish,
	}

	got := settingsText(group)
	assert.Contains(t, got, "群组：测试群")
	assert.Contains(t, got, "摘要长度：long")
	assert.Contains(t, got, "语言：en")
}

func TestSettingsKeyboardReflectsState(t *testing.T) {
	group := &database.Group{
		SummaryLength: database.SummaryLengthShort,
		Language:      database.LanguageEnglish,
	}

	kb := settingsKeyboard(group)
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Contains(t, kb.InlineKeyboard[0][0].Text, "🔴 短")
	assert.Contains(t, kb.InlineKeyboard[1][0].Text, "🇺🇸 English")
	assert.Contains(t, kb.InlineKeyboard[2][0].Text, "💎 付费群: 关")
	assert.Equal(t, cbBackToMain, kb.InlineKeyboard[3][0].CallbackData)
}

func TestPaidListKeyboardCallbackData(t *testing.T) {
	users := []database.PaidUser{{UserID: 42, UserName: "alice"}}

	kb := paidListKeyboard(users)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "remove_paid_42", kb.InlineKeyboard[0][0].CallbackData)
}
