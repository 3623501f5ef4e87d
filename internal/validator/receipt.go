package validator

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/linkpulse/linkpulse/internal/model"
)

// Receipts issues signed HS256 tokens proving an event passed validation.
// Downstream collaborators (the data layer, payout jobs) verify the receipt
// instead of trusting the caller's word.
type Receipts struct {
	signKey []byte
	ttl     time.Duration
}

// NewReceipts constructs a receipt issuer.
func NewReceipts(signKey []byte, ttl time.Duration) *Receipts {
	return &Receipts{signKey: signKey, ttl: ttl}
}

type receiptClaims struct {
	AffiliateID string `json:"aff"`
	CampaignID  string `json:"cmp"`
	EventType   string `json:"typ"`
	RiskScore   int    `json:"risk"`
	jwt.RegisteredClaims
}

// Issue signs a receipt for an allowed event.
func (r *Receipts) Issue(eventID uuid.UUID, ev model.TrackEvent, riskScore int) (string, error) {
	now := time.Now()
	claims := receiptClaims{
		AffiliateID: ev.AffiliateID,
		CampaignID:  ev.CampaignID,
		EventType:   string(ev.Type),
		RiskScore:   riskScore,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   eventID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(r.signKey)
}

// Verify parses a receipt and returns the event id it covers.
func (r *Receipts) Verify(token string) (uuid.UUID, error) {
	var claims receiptClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromString(claims.Subject)
}
