package agent

import (
	"errors"
	"testing"
	"time"
)

func attributedAgent(t *testing.T) (*Agent, *MemoryStorage, *time.Time) {
	t.Helper()
	a, storage, clock := newTestAgent(t)
	if _, err := a.ResolveAttribution("https://shop.example.com/?ref=aff123"); err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	return a, storage, clock
}

func TestTrackConversion_DedupWindow(t *testing.T) {
	t.Parallel()
	a, _, clock := attributedAgent(t)

	if !a.TrackConversion(100, nil) {
		t.Fatalf("first conversion rejected")
	}
	// Same amount inside the 60s window: exactly one accepted attempt.
	*clock = clock.Add(30 * time.Second)
	if a.TrackConversion(100, nil) {
		t.Fatalf("duplicate inside window accepted")
	}
	// Past the window the same amount is a new, independent attempt.
	*clock = clock.Add(70 * time.Second)
	if !a.TrackConversion(100, nil) {
		t.Fatalf("independent attempt after window rejected")
	}
}

func TestTrackConversion_AmountTolerance(t *testing.T) {
	t.Parallel()
	a, _, clock := attributedAgent(t)

	if !a.TrackConversion(100, nil) {
		t.Fatalf("first conversion rejected")
	}
	*clock = clock.Add(time.Second)
	if a.TrackConversion(100.005, nil) {
		t.Fatalf("near-equal amount inside tolerance accepted")
	}
	if !a.TrackConversion(149.99, nil) {
		t.Fatalf("distinct amount inside window rejected")
	}
}

func TestTrackConversion_NoAttribution(t *testing.T) {
	t.Parallel()
	a, storage, _ := newTestAgent(t)

	if a.TrackConversion(50, nil) {
		t.Fatalf("conversion accepted without attribution")
	}
	// No dedup entry may be created on the no-op path.
	if _, ok := storage.Get(a.storageKey(kindDedup)); ok {
		t.Fatalf("dedup entry created without attribution")
	}
}

func TestTrackConversion_NonPositiveAmount(t *testing.T) {
	t.Parallel()
	a, _, _ := attributedAgent(t)

	if a.TrackConversion(0, nil) || a.TrackConversion(-5, nil) {
		t.Fatalf("non-positive amount accepted")
	}
}

type denyGuard struct{}

func (denyGuard) Authorize() error { return errors.New("console invocation detected") }

func TestTrackConversion_GuardRejectionLogged(t *testing.T) {
	t.Parallel()
	storage := NewMemoryStorage()
	a, err := New(Config{
		CampaignID:  "camp456",
		Fingerprint: Fingerprint{UserAgent: "Mozilla/5.0 (X11) AppleWebKit/537.36"},
		Storage:     storage,
		Guard:       denyGuard{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := a.ResolveAttribution("https://shop.example.com/?ref=aff123"); err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}

	if a.TrackConversion(100, nil) {
		t.Fatalf("guarded invocation accepted")
	}
	entries := a.SuspiciousActivity()
	if len(entries) != 1 || entries[0].Kind != "injection_attempt" {
		t.Fatalf("suspicious activity not recorded: %+v", entries)
	}
}

func TestTrackConversion_ListBounds(t *testing.T) {
	t.Parallel()
	a, _, clock := attributedAgent(t)

	// Distinct amounts spaced out so none dedups; the list must cap at 10.
	for i := 0; i < 13; i++ {
		if !a.TrackConversion(float64(10+i), nil) {
			t.Fatalf("attempt %d rejected", i)
		}
		*clock = clock.Add(2 * time.Second)
	}
	if got := len(a.loadDedupList()); got > dedupMaxEntries {
		t.Fatalf("dedup list grew to %d entries", got)
	}

	// Entries beyond the retention window are pruned.
	*clock = clock.Add(dedupRetention + time.Minute)
	if got := len(a.loadDedupList()); got != 0 {
		t.Fatalf("stale entries survived pruning: %d", got)
	}
}

func TestLastAttempt(t *testing.T) {
	t.Parallel()
	a, _, _ := attributedAgent(t)

	if _, ok := a.LastAttempt(); ok {
		t.Fatalf("attempt reported before any conversion")
	}
	commission := 12.5
	if !a.TrackConversion(80, &commission) {
		t.Fatalf("conversion rejected")
	}
	attempt, ok := a.LastAttempt()
	if !ok {
		t.Fatalf("no attempt after eligible conversion")
	}
	if attempt.Amount != 80 || attempt.AffiliateID != "aff123" || attempt.Signature == "" {
		t.Fatalf("bad attempt: %+v", attempt)
	}
	if attempt.CustomCommission == nil || *attempt.CustomCommission != 12.5 {
		t.Fatalf("custom commission lost: %+v", attempt.CustomCommission)
	}
}
