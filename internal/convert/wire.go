// Package convert maps between wire DTOs and domain models.
package convert

import (
	"fmt"
	"time"

	"github.com/linkpulse/linkpulse/internal/model"
)

// TrackRequest is the JSON payload posted by the client integration layer.
type TrackRequest struct {
	AffiliateID      string   `json:"affiliateId"`
	CampaignID       string   `json:"campaignId"`
	Type             string   `json:"type"`
	Amount           *float64 `json:"amount,omitempty"`
	UserAgent        string   `json:"userAgent,omitempty"`
	Referrer         string   `json:"referrer,omitempty"`
	Timestamp        int64    `json:"timestamp"` // epoch ms
	Signature        string   `json:"signature,omitempty"`
	ClientValidation bool     `json:"clientValidation"`
}

// TrackResponse is the validator's answer on the wire.
type TrackResponse struct {
	Success   bool     `json:"success"`
	RiskScore int      `json:"riskScore"`
	Reasons   []string `json:"reasons,omitempty"`
	EventID   string   `json:"eventId,omitempty"`
	Receipt   string   `json:"receipt,omitempty"`
}

// ToTrackEvent builds the domain event from the request plus the
// server-observed ip and user agent. The header user agent wins over the
// client-asserted one; the asserted one is only a fallback.
func ToTrackEvent(req TrackRequest, ip, headerUA, headerReferrer string) (model.TrackEvent, error) {
	switch req.Type {
	case string(model.EventClick), string(model.EventConversion):
	default:
		return model.TrackEvent{}, fmt.Errorf("bad event type %q", req.Type)
	}
	ua := headerUA
	if ua == "" {
		ua = req.UserAgent
	}
	referrer := headerReferrer
	if referrer == "" {
		referrer = req.Referrer
	}
	return model.TrackEvent{
		AffiliateID: req.AffiliateID,
		CampaignID:  req.CampaignID,
		Type:        model.EventType(req.Type),
		Amount:      req.Amount,
		UserAgent:   ua,
		Referrer:    referrer,
		IP:          ip,
		Signature:   req.Signature,
		Timestamp:   time.UnixMilli(req.Timestamp),
	}, nil
}

// EventSummary is the wire form of a persisted event on the reporting endpoint.
type EventSummary struct {
	ID          string   `json:"id"`
	AffiliateID string   `json:"affiliateId"`
	CampaignID  string   `json:"campaignId"`
	Type        string   `json:"type"`
	Amount      *float64 `json:"amount,omitempty"`
	RiskScore   int      `json:"riskScore"`
	Reasons     []string `json:"reasons,omitempty"`
	CreatedAt   int64    `json:"createdAt"` // epoch ms
}

// FromEventRecords maps persisted records onto the wire. The ip hash and
// user agent stay server-side.
func FromEventRecords(records []model.EventRecord) []EventSummary {
	out := make([]EventSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, EventSummary{
			ID:          rec.ID.String(),
			AffiliateID: rec.AffiliateID,
			CampaignID:  rec.CampaignID,
			Type:        string(rec.Type),
			Amount:      rec.Amount,
			RiskScore:   rec.RiskScore,
			Reasons:     rec.Reasons,
			CreatedAt:   rec.CreatedAt.UnixMilli(),
		})
	}
	return out
}

// FromValidationResult maps the validator verdict onto the wire response.
func FromValidationResult(res model.ValidationResult) TrackResponse {
	out := TrackResponse{
		Success:   res.Allowed,
		RiskScore: res.RiskScore,
		Reasons:   res.Reasons,
		Receipt:   res.Receipt,
	}
	if res.Allowed {
		out.EventID = res.EventID.String()
	}
	return out
}
