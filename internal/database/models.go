package database

import (
	"time"
)

// Summary length values accepted by UpdateGroupSettings.
const (
	SummaryLengthShort  = "short"
	SummaryLengthMedium = "medium"
	SummaryLengthLong   = "long"
)

// Language tags accepted by UpdateGroupSettings.
const (
	LanguageChinese = "zh-CN"
	LanguageEnglish = "en"
)

// Group represents a registered Telegram group together with its summary
// settings. There is at most one row per group_id; registration upserts.
type Group struct {
	GroupID       int64     `db:"group_id"`
	GroupName     string    `db:"group_name"`
	OwnerID       int64     `db:"owner_id"`
	IsPremium     bool      `db:"is_premium"`
	SummaryLength string    `db:"summary_length"`
	Language      string    `db:"language"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// PaidUser represents a user granted summary access within a specific group
// until an expiration timestamp. Uniqueness is on (user_id, group_id);
// a repeated grant renews name and expiry in place. Validity is derived:
// the record is active iff expires_at is strictly after now.
type PaidUser struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	UserName  string    `db:"user_name"`
	GroupID   int64     `db:"group_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Active reports whether the grant is still valid at the given instant.
// The boundary is strict: a grant expiring exactly now is inactive.
func (p PaidUser) Active(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

// Message represents a recorded group-chat message used as summary input.
type Message struct {
	ID        int64     `db:"id"`
	GroupID   int64     `db:"group_id"`
	UserID    int64     `db:"user_id"`
	UserName  string    `db:"user_name"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
}

// GroupSettingsUpdate is a typed partial update of the mutable group settings.
// A nil field is left unchanged. Fields outside this struct cannot be
// modified through UpdateGroupSettings.
type GroupSettingsUpdate struct {
	Premium       *bool
	SummaryLength *string
	Language      *string
}

// IsEmpty reports whether the update carries no fields.
func (u GroupSettingsUpdate) IsEmpty() bool {
	return u.Premium == nil && u.SummaryLength == nil && u.Language == nil
}

// Validate checks that the supplied fields hold known values. Summary length
// and language are closed sets; storing anything else would silently break
// prompt selection downstream, so invalid values are rejected at the write
// path.
func (u GroupSettingsUpdate) Validate() error {
	if u.SummaryLength != nil {
		switch *u.SummaryLength {
		case SummaryLengthShort, SummaryLengthMedium, SummaryLengthLong:
		default:
			return &ValidationError{Field: "summary_length", Value: *u.SummaryLength}
		}
	}
	if u.Language != nil {
		switch *u.Language {
		case LanguageChinese, LanguageEnglish:
		default:
			return &ValidationError{Field: "language", Value: *u.Language}
		}
	}
	return nil
}

// ValidationError reports a rejected settings value.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return "invalid value " + e.Value + " for " + e.Field
}
