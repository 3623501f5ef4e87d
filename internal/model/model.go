// Package model defines domain entities used by the agent, risk engine and validator.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// AttributionSource reports how an attribution record was established.
type AttributionSource string

const (
	// SourceURLParam means the visitor arrived with an affiliate reference parameter.
	SourceURLParam AttributionSource = "url_param"
	// SourceExistingSession means the record was recovered from client storage.
	SourceExistingSession AttributionSource = "existing_session"
)

// AttributionRecord associates a visitor with the affiliate credited for referring them.
// At most one record is active per visitor per campaign; see agent.ResolveAttribution
// for the overwrite semantics on repeat url_param arrivals.
type AttributionRecord struct {
	AffiliateID string            `json:"affiliateId"`
	CampaignID  string            `json:"campaignId"`
	CapturedAt  time.Time         `json:"capturedAt"`
	Source      AttributionSource `json:"source"`
}

// ConversionAttempt is an in-flight request to credit a sale to an affiliate.
type ConversionAttempt struct {
	Amount           float64   `json:"amount"`
	CustomCommission *float64  `json:"customCommission,omitempty"`
	AffiliateID      string    `json:"affiliateId"`
	CampaignID       string    `json:"campaignId"`
	Timestamp        time.Time `json:"timestamp"`
	PageURL          string    `json:"pageUrl"`
	Signature        string    `json:"signature"`
}

// SuspiciousActivity records a rejected invocation of the public conversion API.
type SuspiciousActivity struct {
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RiskDecision is the binary outcome of scoring an event.
type RiskDecision string

const (
	DecisionAllow RiskDecision = "allow"
	DecisionBlock RiskDecision = "block"
)

// RiskAssessment is the output of scoring a click or conversion event.
// Score is built additively from independent signals and capped at 100.
type RiskAssessment struct {
	Score    int          `json:"score"`
	Factors  []string     `json:"factors"`
	Decision RiskDecision `json:"decision"`
}

// EventType distinguishes the two validated event kinds.
type EventType string

const (
	EventClick      EventType = "click"
	EventConversion EventType = "conversion"
)

// TrackEvent is the payload the client integration layer submits for validation.
type TrackEvent struct {
	AffiliateID string
	CampaignID  string
	Type        EventType
	Amount      *float64
	UserAgent   string
	Referrer    string
	IP          string
	Signature   string
	Timestamp   time.Time
}

// ValidationResult is the validator's verdict. Allowed is strictly binary:
// callers must not infer a third state from the score.
type ValidationResult struct {
	Allowed   bool
	RiskScore int
	Reasons   []string
	EventID   uuid.UUID
	Receipt   string
}

// EventRecord is the durable form of an allowed click or conversion.
type EventRecord struct {
	ID          uuid.UUID
	AffiliateID string
	CampaignID  string
	Type        EventType
	Amount      *float64
	RiskScore   int
	Reasons     []string
	IPHash      string
	UserAgent   string
	Referrer    string
	CreatedAt   time.Time
}
