package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface for groups, paid users, and
// messages. Methods accept context.Context for cancellation and timeouts.
// Every write runs in its own transaction that commits on success and rolls
// back fully on error.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertGroup inserts a group or, on conflict, updates its name, owner,
	// and updated_at. It returns the stored record.
	UpsertGroup(ctx context.Context, groupID int64, groupName string, ownerID int64) (*Group, error)

	// GetGroup retrieves a group by ID. Returns nil, nil if not found.
	GetGroup(ctx context.Context, groupID int64) (*Group, error)

	// UpdateGroupSettings applies a typed partial update of the mutable
	// settings. It reports whether a row was changed: false when the group
	// is unknown or the update carries no fields.
	UpdateGroupSettings(ctx context.Context, groupID int64, upd GroupSettingsUpdate) (bool, error)

	// IsGroupOwner reports whether userID owns the group. Unknown groups
	// yield false.
	IsGroupOwner(ctx context.Context, groupID, userID int64) (bool, error)

	// AddOrRenewPaidUser grants or renews paid access, updating name and
	// expiry in place on the (user_id, group_id) uniqueness conflict.
	AddOrRenewPaidUser(ctx context.Context, userID int64, userName string, groupID int64, expiresAt time.Time) error

	// ListPaidUsers returns the group's paid users, most-future expiry first.
	ListPaidUsers(ctx context.Context, groupID int64) ([]PaidUser, error)

	// IsActivePaidUser reports whether a grant exists whose expiry is
	// strictly after the current time.
	IsActivePaidUser(ctx context.Context, userID, groupID int64) (bool, error)

	// RemovePaidUser deletes a grant, reporting whether a row was removed.
	RemovePaidUser(ctx context.Context, userID, groupID int64) (bool, error)

	// SaveMessage inserts a new message record. A zero timestamp is filled
	// from the store clock.
	SaveMessage(ctx context.Context, msg *Message) error

	// RecentMessages returns the newest 'limit' messages of a group in
	// chronological order (oldest first).
	RecentMessages(ctx context.Context, groupID int64, limit int) ([]Message, error)

	// MessageCount returns the number of stored messages for a group.
	MessageCount(ctx context.Context, groupID int64) (int64, error)

	// TrimToMostRecent keeps only the keepCount newest messages of a group
	// and returns the number of rows deleted (0 for an empty group).
	TrimToMostRecent(ctx context.Context, groupID int64, keepCount int64) (int64, error)

	// ClearMessages deletes every message of a group and returns the count.
	ClearMessages(ctx context.Context, groupID int64) (int64, error)

	// GroupsOverCap lists group IDs currently holding more than capacity messages.
	GroupsOverCap(ctx context.Context, capacity int64) ([]int64, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	clock  Clock
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	return NewStoreWithClock(db, logger, RealClock{})
}

// NewStoreWithClock is like NewStore but with an injectable clock, used by
// tests that exercise expiry boundaries.
func NewStoreWithClock(db *sqlx.DB, logger *slog.Logger, clock Clock) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		clock:  clock,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// inTx runs fn inside a transaction, committing on success and rolling back
// fully on any error.
func (s *sqlxStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

func (s *sqlxStore) UpsertGroup(ctx context.Context, groupID int64, groupName string, ownerID int64) (*Group, error) {
	now := s.clock.Now()

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        INSERT INTO groups (group_id, group_name, owner_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (group_id) DO UPDATE SET
            group_name = excluded.group_name,
            owner_id   = excluded.owner_id,
            updated_at = excluded.updated_at;
    `
		if _, err := tx.ExecContext(ctx, query, groupID, groupName, ownerID, now, now); err != nil {
			return fmt.Errorf("failed to upsert group %d: %w", groupID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error upserting group", "group_id", groupID, "error", err)
		return nil, err
	}

	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, fmt.Errorf("group %d missing after upsert", groupID)
	}

	s.logger.DebugContext(ctx, "Group upserted", "group_id", groupID, "owner_id", ownerID)
	return group, nil
}

func (s *sqlxStore) GetGroup(ctx context.Context, groupID int64) (*Group, error) {
	var group Group
	query := `SELECT group_id, group_name, owner_id, is_premium, summary_length, language, created_at, updated_at
	          FROM groups WHERE group_id = ?`

	err := s.db.GetContext(ctx, &group, query, groupID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting group", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to get group %d: %w", groupID, err)
	}

	return &group, nil
}

func (s *sqlxStore) UpdateGroupSettings(ctx context.Context, groupID int64, upd GroupSettingsUpdate) (bool, error) {
	if upd.IsEmpty() {
		return false, nil
	}
	if err := upd.Validate(); err != nil {
		return false, err
	}

	setParts := []string{"updated_at = ?"}
	args := []any{s.clock.Now()}

	if upd.Premium != nil {
		setParts = append(setParts, "is_premium = ?")
		args = append(args, *upd.Premium)
	}
	if upd.SummaryLength != nil {
		setParts = append(setParts, "summary_length = ?")
		args = append(args, *upd.SummaryLength)
	}
	if upd.Language != nil {
		setParts = append(setParts, "language = ?")
		args = append(args, *upd.Language)
	}
	args = append(args, groupID)

	var affected int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := "UPDATE groups SET " + strings.Join(setParts, ", ") + " WHERE group_id = ?"
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update settings for group %d: %w", groupID, err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows for group %d: %w", groupID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating group settings", "group_id", groupID, "error", err)
		return false, err
	}

	s.logger.DebugContext(ctx, "Group settings updated", "group_id", groupID, "affected", affected)
	return affected > 0, nil
}

func (s *sqlxStore) IsGroupOwner(ctx context.Context, groupID, userID int64) (bool, error) {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group != nil && group.OwnerID == userID, nil
}

func (s *sqlxStore) AddOrRenewPaidUser(ctx context.Context, userID int64, userName string, groupID int64, expiresAt time.Time) error {
	now := s.clock.Now()

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        INSERT INTO paid_users (user_id, user_name, group_id, expires_at, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (user_id, group_id) DO UPDATE SET
            user_name  = excluded.user_name,
            expires_at = excluded.expires_at;
    `
		if _, err := tx.ExecContext(ctx, query, userID, userName, groupID, expiresAt, now); err != nil {
			return fmt.Errorf("failed to upsert paid user %d in group %d: %w", userID, groupID, err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding paid user", "user_id", userID, "group_id", groupID, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Paid user added or renewed",
		"user_id", userID, "group_id", groupID, "expires_at", expiresAt)
	return nil
}

func (s *sqlxStore) ListPaidUsers(ctx context.Context, groupID int64) ([]PaidUser, error) {
	var users []PaidUser
	query := `SELECT id, user_id, user_name, group_id, expires_at, created_at
	          FROM paid_users
	          WHERE group_id = ?
	          ORDER BY expires_at DESC`

	if err := s.db.SelectContext(ctx, &users, query, groupID); err != nil {
		s.logger.ErrorContext(ctx, "Error listing paid users", "group_id", groupID, "error", err)
		return nil, fmt.Errorf("failed to list paid users for group %d: %w", groupID, err)
	}
	return users, nil
}

func (s *sqlxStore) IsActivePaidUser(ctx context.Context, userID, groupID int64) (bool, error) {
	var expiresAt time.Time
	query := `SELECT expires_at FROM paid_users WHERE user_id = ? AND group_id = ?`

	err := s.db.GetContext(ctx, &expiresAt, query, userID, groupID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error checking paid user", "user_id", userID, "group_id", groupID, "error", err)
		return false, fmt.Errorf("failed to check paid user %d in group %d: %w", userID, groupID, err)
	}

	// Strict inequality: a grant expiring exactly now is inactive.
	return s.clock.Now().Before(expiresAt), nil
}

func (s *sqlxStore) RemovePaidUser(ctx context.Context, userID, groupID int64) (bool, error) {
	var affected int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM paid_users WHERE user_id = ? AND group_id = ?`, userID, groupID)
		if err != nil {
			return fmt.Errorf("failed to remove paid user %d in group %d: %w", userID, groupID, err)
		}
		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing paid user", "user_id", userID, "group_id", groupID, "error", err)
		return false, err
	}

	return affected > 0, nil
}

func (s *sqlxStore) SaveMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if msg.GroupID == 0 {
		return fmt.Errorf("message must have a non-zero group_id")
	}
	if msg.Content == "" {
		return fmt.Errorf("message must have non-empty content")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.clock.Now()
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        INSERT INTO messages (group_id, user_id, user_name, content, timestamp)
        VALUES (:group_id, :user_id, :user_name, :content, :timestamp);
    `
		result, err := tx.NamedExecContext(ctx, query, msg)
		if err != nil {
			return fmt.Errorf("failed to save message (group %d, user %d): %w", msg.GroupID, msg.UserID, err)
		}
		if id, err := result.LastInsertId(); err == nil {
			msg.ID = id
		} else {
			s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
				"group_id", msg.GroupID, "error", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "group_id", msg.GroupID, "user_id", msg.UserID, "error", err)
		return err
	}

	s.logger.DebugContext(ctx, "Message saved", "group_id", msg.GroupID, "message_id", msg.ID)
	return nil
}

func (s *sqlxStore) RecentMessages(ctx context.Context, groupID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	var messages []Message
	query := `SELECT id, group_id, user_id, user_name, content, timestamp
	          FROM messages
	          WHERE group_id = ?
	          ORDER BY timestamp DESC, id DESC
	          LIMIT ?`

	if err := s.db.SelectContext(ctx, &messages, query, groupID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "group_id", groupID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for group %d: %w", groupID, err)
	}

	// Reverse to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *sqlxStore) MessageCount(ctx context.Context, groupID int64) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE group_id = ?`, groupID); err != nil {
		s.logger.ErrorContext(ctx, "Error counting messages", "group_id", groupID, "error", err)
		return 0, fmt.Errorf("failed to count messages for group %d: %w", groupID, err)
	}
	return count, nil
}

func (s *sqlxStore) TrimToMostRecent(ctx context.Context, groupID int64, keepCount int64) (int64, error) {
	var deleted int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var keepIDs []int64
		if err := tx.SelectContext(ctx, &keepIDs,
			`SELECT id FROM messages WHERE group_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
			groupID, keepCount); err != nil {
			return fmt.Errorf("failed to select messages to keep for group %d: %w", groupID, err)
		}
		if len(keepIDs) == 0 {
			return nil
		}

		query, args, err := sqlx.In(
			`DELETE FROM messages WHERE group_id = ? AND id NOT IN (?)`, groupID, keepIDs)
		if err != nil {
			return fmt.Errorf("failed to build trim query for group %d: %w", groupID, err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to trim messages for group %d: %w", groupID, err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error trimming messages", "group_id", groupID, "error", err)
		return 0, err
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "Trimmed old messages", "group_id", groupID, "deleted", deleted, "kept", keepCount)
	}
	return deleted, nil
}

func (s *sqlxStore) ClearMessages(ctx context.Context, groupID int64) (int64, error) {
	var deleted int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE group_id = ?`, groupID)
		if err != nil {
			return fmt.Errorf("failed to clear messages for group %d: %w", groupID, err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Error clearing messages", "group_id", groupID, "error", err)
		return 0, err
	}

	s.logger.InfoContext(ctx, "Cleared messages", "group_id", groupID, "deleted", deleted)
	return deleted, nil
}

func (s *sqlxStore) GroupsOverCap(ctx context.Context, capacity int64) ([]int64, error) {
	var groupIDs []int64
	query := `SELECT group_id FROM messages GROUP BY group_id HAVING COUNT(*) > ?`

	if err := s.db.SelectContext(ctx, &groupIDs, query, capacity); err != nil {
		s.logger.ErrorContext(ctx, "Error listing groups over retention cap", "cap", capacity, "error", err)
		return nil, fmt.Errorf("failed to list groups over cap %d: %w", capacity, err)
	}
	return groupIDs, nil
}

// RunMaintenance executes a VACUUM command on the SQLite database.
// VACUUM must run outside a transaction in SQLite.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
