// Package chatlog records incoming group messages and enforces the
// per-group retention cap.
package chatlog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wenjia-li/digestbot/internal/database"
)

// Recorder persists group chat messages. After each insert it checks
// the group's message count and trims the oldest rows beyond the cap.
type Recorder struct {
	store        database.Store
	retentionCap int64
	logger       *slog.Logger
}

// NewRecorder creates a Recorder writing through the given store.
// retentionCap is the maximum number of messages kept per group.
func NewRecorder(store database.Store, retentionCap int64, logger *slog.Logger) *Recorder {
	return &Recorder{
		store:        store,
		retentionCap: retentionCap,
		logger:       logger.With("component", "chatlog"),
	}
}

// Record saves one message. Blank or whitespace-only text is silently
// ignored. A trim failure after a successful insert is logged but not
// returned, so a retention hiccup never drops the message itself.
func (r *Recorder) Record(ctx context.Context, groupID, userID int64, userName, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	msg := &database.Message{
		GroupID:  groupID,
		UserID:   userID,
		UserName: userName,
		Content:  text,
	}
	if err := r.store.SaveMessage(ctx, msg); err != nil {
		return err
	}

	count, err := r.store.MessageCount(ctx, groupID)
	if err != nil {
		r.logger.WarnContext(ctx, "Could not check message count after insert",
			"group_id", groupID, "error", err)
		return nil
	}
	if count > r.retentionCap {
		if _, err := r.store.TrimToMostRecent(ctx, groupID, r.retentionCap); err != nil {
			r.logger.WarnContext(ctx, "Could not trim messages over retention cap",
				"group_id", groupID, "count", count, "cap", r.retentionCap, "error", err)
		}
	}

	return nil
}
