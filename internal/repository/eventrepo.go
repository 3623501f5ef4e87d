// Package repository declares persistence ports implemented by storage backends.
package repository

import (
	"context"

	"github.com/linkpulse/linkpulse/internal/model"
)

// EventRepository persists validated click and conversion records. Only
// events that passed the validator ever reach this port.
type EventRepository interface {
	// Save persists one allowed event.
	Save(ctx context.Context, rec *model.EventRecord) error
	// ListByAffiliate returns the most recent records for an affiliate,
	// newest first, up to limit.
	ListByAffiliate(ctx context.Context, affiliateID string, limit int) ([]model.EventRecord, error)
}
