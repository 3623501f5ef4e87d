package risk

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// Click-rate thresholds within the trailing window.
const (
	rateCritical = 10
	rateWarning  = 5
	rateWatch    = 3
)

// Severity grades a click rate for the validator: critical means block now,
// warning means log and watch.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ClickRate is the outcome of a rate check for one hashed IP.
type ClickRate struct {
	Excessive bool
	Count     int
	Severity  Severity
}

// HashIP pseudonymizes an address before storage and lookup. It is a simple
// reversible encoding, not cryptographic anonymization: operators must be
// able to recover the address for abuse follow-up, but raw IPs never appear
// in the click log or in diagnostics.
func HashIP(ip string) string {
	return base64.StdEncoding.EncodeToString([]byte(ip))
}

// ClickCounter counts clicks recorded for a hashed IP within a trailing
// window. Implementations live in the clicklog package.
type ClickCounter interface {
	CountSince(ctx context.Context, ipHash string, since time.Time) (int, error)
}

// CheckClickRate grades the click volume for ipHash over the engine's
// window. The check is advisory: it informs scoring, it does not itself
// gate writes, so slight staleness is acceptable.
func (e *Engine) CheckClickRate(ctx context.Context, ipHash string) (ClickRate, error) {
	count, err := e.counter.CountSince(ctx, ipHash, e.now().Add(-e.window))
	if err != nil {
		return ClickRate{}, fmt.Errorf("click rate: %w", err)
	}

	rate := ClickRate{Count: count, Severity: SeverityNormal}
	switch {
	case count >= rateCritical:
		rate.Severity = SeverityCritical
		rate.Excessive = true
	case count >= rateWarning:
		rate.Severity = SeverityWarning
		rate.Excessive = true
	case count >= rateWatch:
		rate.Severity = SeverityWarning
	}
	return rate, nil
}
