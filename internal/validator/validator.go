// Package validator is the single authoritative decision point both click
// and conversion paths pass through before any durable record is written.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/clicklog"
	"github.com/linkpulse/linkpulse/internal/errs"
	"github.com/linkpulse/linkpulse/internal/model"
	"github.com/linkpulse/linkpulse/internal/repository"
	"github.com/linkpulse/linkpulse/internal/risk"
)

// DefaultSignatureMaxAge bounds how old a client signature token may be.
const DefaultSignatureMaxAge = 5 * time.Minute

// Validator orchestrates risk scoring and persistence into a binary
// allow/block decision. It is stateless across events; any processing error
// maps to the maximum risk score and a blocked outcome (fail-closed).
type Validator struct {
	engine   *risk.Engine
	clicks   clicklog.Store
	events   repository.EventRepository
	receipts *Receipts
	sigAge   time.Duration
	log      *zap.Logger

	now func() time.Time
}

// New constructs a Validator. events may be nil when persistence is owned by
// an external collaborator; receipts may be nil to skip receipt issuance.
func New(engine *risk.Engine, clicks clicklog.Store, events repository.EventRepository, receipts *Receipts, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		engine:   engine,
		clicks:   clicks,
		events:   events,
		receipts: receipts,
		sigAge:   DefaultSignatureMaxAge,
		log:      log,
		now:      time.Now,
	}
}

// Validate runs one event through Received → ServerChecked → Allowed|Blocked.
// The outcome is strictly binary: callers must not infer a third state from
// the score.
func (v *Validator) Validate(ctx context.Context, ev model.TrackEvent) model.ValidationResult {
	res, err := v.check(ctx, ev)
	if err != nil {
		v.log.Warn("validation failed closed",
			zap.String("affiliate", ev.AffiliateID),
			zap.String("campaign", ev.CampaignID),
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return blocked(err)
	}
	return res
}

// blocked is the fail-closed outcome: maximum risk, no event id.
func blocked(err error) model.ValidationResult {
	reason := "Validation indisponible"
	if errors.Is(err, errs.ErrBadSignature) {
		reason = "Signature client invalide"
	}
	return model.ValidationResult{
		Allowed:   false,
		RiskScore: 100,
		Reasons:   []string{reason},
	}
}

func (v *Validator) check(ctx context.Context, ev model.TrackEvent) (model.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ValidationResult{}, err
	}
	if err := validateEvent(ev); err != nil {
		return model.ValidationResult{}, err
	}

	// Conversions must carry a client signature; clicks may arrive before
	// any agent state exists.
	if ev.Type == model.EventConversion {
		if err := verifySignature(ev.Signature, v.sigAge, v.now()); err != nil {
			return model.ValidationResult{}, err
		}
	}

	ipHash := risk.HashIP(ev.IP)
	if ev.Type == model.EventClick {
		if err := v.clicks.Record(ctx, ipHash, v.now()); err != nil {
			return model.ValidationResult{}, fmt.Errorf("record click: %w", err)
		}
	}

	rate, err := v.engine.CheckClickRate(ctx, ipHash)
	if err != nil {
		return model.ValidationResult{}, err
	}

	assessment := v.engine.CalculateRiskScore(risk.Input{
		IP:           ev.IP,
		UserAgent:    ev.UserAgent,
		Referrer:     ev.Referrer,
		ClickCount:   rate.Count,
		TimeInterval: v.engine.Window(),
	})
	score := assessment.Score
	reasons := assessment.Factors

	// Critical click rate blocks on its own; warning tiers only annotate.
	switch rate.Severity {
	case risk.SeverityCritical:
		if score < v.engine.BlockThreshold() {
			score = v.engine.BlockThreshold()
		}
		reasons = append(reasons, "Taux de clics critique")
	case risk.SeverityWarning:
		reasons = append(reasons, "Taux de clics élevé")
	}

	if score >= v.engine.BlockThreshold() {
		v.log.Info("event blocked",
			zap.String("affiliate", ev.AffiliateID),
			zap.String("type", string(ev.Type)),
			zap.Int("score", score),
			zap.Strings("reasons", reasons),
		)
		return model.ValidationResult{Allowed: false, RiskScore: score, Reasons: reasons}, nil
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		return model.ValidationResult{}, err
	}

	if v.events != nil {
		rec := &model.EventRecord{
			ID:          eventID,
			AffiliateID: ev.AffiliateID,
			CampaignID:  ev.CampaignID,
			Type:        ev.Type,
			Amount:      ev.Amount,
			RiskScore:   score,
			Reasons:     reasons,
			IPHash:      ipHash,
			UserAgent:   ev.UserAgent,
			Referrer:    ev.Referrer,
			CreatedAt:   v.now(),
		}
		if err := v.events.Save(ctx, rec); err != nil {
			return model.ValidationResult{}, err
		}
	}

	var receipt string
	if v.receipts != nil {
		receipt, err = v.receipts.Issue(eventID, ev, score)
		if err != nil {
			return model.ValidationResult{}, err
		}
	}

	return model.ValidationResult{
		Allowed:   true,
		RiskScore: score,
		Reasons:   reasons,
		EventID:   eventID,
		Receipt:   receipt,
	}, nil
}

func validateEvent(ev model.TrackEvent) error {
	if ev.AffiliateID == "" || ev.CampaignID == "" {
		return errors.New("validation: empty affiliate/campaign id")
	}
	switch ev.Type {
	case model.EventClick:
	case model.EventConversion:
		if ev.Amount == nil || *ev.Amount <= 0 {
			return errors.New("validation: conversion requires positive amount")
		}
	default:
		return fmt.Errorf("validation: unknown event type %q", ev.Type)
	}
	return nil
}
