// Package agent implements the client tracking agent: session-scoped
// obfuscation of attribution state, the rolling conversion dedup list and
// the public conversion-reporting surface.
//
// The obfuscation layer is deliberately not cryptographically strong: its
// key is derived from public, observable client properties. The goal is
// tamper-resistance against casual inspection, not confidentiality. Do not
// replace it with a real AEAD without moving to server-issued secrets.
package agent

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/model"
)

// InvocationGuard checks whether a call to the public conversion surface
// originates from a legitimate integration rather than console/eval
// injection. This is inherently best-effort and platform specific; the
// authoritative defense is the server-side signature check.
type InvocationGuard interface {
	// Authorize returns a non-nil error when the invocation context is
	// untrusted. The error message is recorded in the suspicious-activity log.
	Authorize() error
}

// PassGuard authorizes every invocation. It is the default on platforms
// where invocation-context inspection is meaningless.
type PassGuard struct{}

// Authorize always succeeds.
func (PassGuard) Authorize() error { return nil }

// Config collects the dependencies of an Agent.
type Config struct {
	// CampaignID scopes all stored state; it comes from the page integration
	// (the data-campaign attribute of the script tag).
	CampaignID string
	// Fingerprint provides the session-secret derivation signals.
	Fingerprint Fingerprint
	// Storage is the durable client-side store. Required.
	Storage Storage
	// Guard is the invocation-context check; nil means PassGuard.
	Guard InvocationGuard
	// Logger receives diagnostic events; nil means no logging.
	Logger *zap.Logger
}

// Agent holds all per-session state. The public surface is exactly the
// exported methods; every field is private so integrations cannot
// monkey-patch the internals at runtime.
type Agent struct {
	campaignID string
	secret     []byte
	codec      codec
	storage    Storage
	guard      InvocationGuard
	log        *zap.Logger

	// pageURL is the page last seen by ResolveAttribution; conversion
	// attempts are stamped with it.
	pageURL string

	now func() time.Time
}

// New derives the session secret and returns a ready Agent.
func New(cfg Config) (*Agent, error) {
	if cfg.CampaignID == "" {
		return nil, errors.New("agent: empty campaign id")
	}
	if cfg.Storage == nil {
		return nil, errors.New("agent: nil storage")
	}
	secret, err := deriveSessionSecret(cfg.Fingerprint)
	if err != nil {
		return nil, err
	}
	guard := cfg.Guard
	if guard == nil {
		guard = PassGuard{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		campaignID: cfg.CampaignID,
		secret:     secret,
		codec:      codec{key: secret},
		storage:    cfg.Storage,
		guard:      guard,
		log:        log,
		now:        time.Now,
	}, nil
}

// storage key kinds, namespaced per campaign
const (
	kindAttribution = "attr"
	kindDedup       = "conv"
	kindSuspicious  = "seclog"
)

func (a *Agent) storageKey(kind string) string {
	return "lp_" + kind + "_" + a.campaignID
}

// SuspiciousActivity returns the recorded rejected invocations, oldest first.
func (a *Agent) SuspiciousActivity() []model.SuspiciousActivity {
	var entries []model.SuspiciousActivity
	if !a.secureRetrieve(a.storageKey(kindSuspicious), &entries) {
		return nil
	}
	return entries
}

func (a *Agent) logSuspicious(kind, detail string) {
	var entries []model.SuspiciousActivity
	a.secureRetrieve(a.storageKey(kindSuspicious), &entries)
	entries = append(entries, model.SuspiciousActivity{
		Kind:       kind,
		Detail:     detail,
		OccurredAt: a.now(),
	})
	if err := a.secureStore(a.storageKey(kindSuspicious), entries); err != nil {
		a.log.Warn("suspicious activity log write failed", zap.Error(err))
	}
}
