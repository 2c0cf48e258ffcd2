// Package chatlog persists the append-only conversation log. One row per
// turn; turns are never mutated after insert.
package chatlog

import (
	"context"

	"github.com/shehryarbajwa/browserpilot/pkg/models"
)

// Store is the conversation log. RecentSummary concatenates the last n
// turns' truncated message/response pairs for inclusion in follow-up LLM
// prompts.
type Store interface {
	Append(ctx context.Context, turn models.ChatTurn) error
	History(ctx context.Context, sessionID string) ([]models.ChatTurn, error)
	RecentSummary(ctx context.Context, sessionID string, n int) (string, error)
	Close() error
}
