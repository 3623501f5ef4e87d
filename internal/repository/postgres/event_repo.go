package postgres

import (
	"context"
	"fmt"

	"github.com/linkpulse/linkpulse/internal/errs"
	"github.com/linkpulse/linkpulse/internal/model"
)

// EventRepo persists validated events in the track_events table.
type EventRepo struct {
	db *DB
}

// NewEventRepo constructs an EventRepo.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// Save inserts one allowed event. Duplicate ids map to ErrAlreadyExists.
func (r *EventRepo) Save(ctx context.Context, rec *model.EventRecord) error {
	const q = `
INSERT INTO track_events (id, affiliate_id, campaign_id, event_type, amount, risk_score, reasons, ip_hash, user_agent, referrer, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	reasons := rec.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	_, err := r.db.Pool.Exec(ctx, q,
		rec.ID, rec.AffiliateID, rec.CampaignID, string(rec.Type), rec.Amount,
		rec.RiskScore, reasons, rec.IPHash, rec.UserAgent, rec.Referrer, rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// ListByAffiliate returns the most recent events for an affiliate, newest first.
func (r *EventRepo) ListByAffiliate(ctx context.Context, affiliateID string, limit int) ([]model.EventRecord, error) {
	const q = `
SELECT id, affiliate_id, campaign_id, event_type, amount, risk_score, reasons, ip_hash, user_agent, referrer, created_at
FROM track_events
WHERE affiliate_id=$1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, affiliateID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []model.EventRecord
	for rows.Next() {
		var rec model.EventRecord
		var eventType string
		if err := rows.Scan(&rec.ID, &rec.AffiliateID, &rec.CampaignID, &eventType, &rec.Amount,
			&rec.RiskScore, &rec.Reasons, &rec.IPHash, &rec.UserAgent, &rec.Referrer, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		rec.Type = model.EventType(eventType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
