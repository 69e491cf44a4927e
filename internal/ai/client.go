// Package ai implements the summary generation backends. A Summarizer
// turns a window of recorded chat messages into natural language text;
// the concrete backend is chosen by configuration.
package ai

import (
	"context"

	"github.com/wenjia-li/digestbot/internal/database"
)

// Summarizer generates a chat summary from a slice of messages in
// chronological order. length is one of the summary length settings and
// language is the group's output language tag.
type Summarizer interface {
	Summarize(ctx context.Context, messages []database.Message, length, language string) (string, error)
}
