// Package store keeps per-conversation state: pending intakes, the greeted
// set, and topic usage counters.
package store

import (
	"context"
	"errors"

	"github.com/academia-artes/course-assistant/internal/model"
)

// ErrNotFound is returned when a conversation has no pending intake.
var ErrNotFound = errors.New("store: not found")

// Store is the conversation state contract shared by the memory and Redis
// implementations.
type Store interface {
	// GetIntake returns the pending intake or ErrNotFound.
	GetIntake(ctx context.Context, key model.ConversationKey) (*model.IntakeRecord, error)
	// SaveIntake replaces the pending intake.
	SaveIntake(ctx context.Context, key model.ConversationKey, rec *model.IntakeRecord) error
	// DeleteIntake removes the pending intake. Missing records are not an error.
	DeleteIntake(ctx context.Context, key model.ConversationKey) error

	// MarkGreeted adds the conversation to the greeted set and reports
	// whether it was absent before.
	MarkGreeted(ctx context.Context, key model.ConversationKey) (bool, error)

	// IncrementUsage bumps the answered-turn counter for (conversation, topic)
	// and returns the new value.
	IncrementUsage(ctx context.Context, key model.ConversationKey, topic string) (int64, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
