package state

import (
	"context"
	"time"
)

// State identifies the input a user is expected to send next.
type State string

// StateIdle means nothing is pending. Absent and expired entries read as idle.
const StateIdle State = ""

// DefaultTTL applies when a store is built with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

// Store is safe for concurrent use. A user has at most one pending state;
// Set overwrites it.
type Store interface {
	Get(ctx context.Context, userID int64) (State, error)
	Set(ctx context.Context, userID int64, st State) error
	Clear(ctx context.Context, userID int64) error
	// Take returns the pending state and resets it to idle in one step.
	Take(ctx context.Context, userID int64) (State, error)
	// SetIfIdle sets st only when nothing is pending and reports whether it did.
	SetIfIdle(ctx context.Context, userID int64, st State) (bool, error)

	SetTemp(ctx context.Context, userID int64, key, value string) error
	GetTemp(ctx context.Context, userID int64, key string) (string, bool, error)
}
