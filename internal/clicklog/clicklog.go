// Package clicklog defines the time-windowed click observation store used
// for advisory rate checks, with Postgres, Redis and in-memory backends.
package clicklog

import (
	"context"
	"time"
)

// Store records click observations per pseudonymized IP and answers
// trailing-window counts. The store is append-only and advisory: readers
// tolerate slight staleness, so no cross-request locking is required.
type Store interface {
	// Record appends one click observation for ipHash at the given time.
	Record(ctx context.Context, ipHash string, at time.Time) error
	// CountSince returns the number of observations for ipHash after since.
	CountSince(ctx context.Context, ipHash string, since time.Time) (int, error)
	// Prune discards observations older than before.
	Prune(ctx context.Context, before time.Time) error
}
