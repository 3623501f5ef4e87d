package risk

import (
	"context"
	"testing"
	"time"

	"github.com/linkpulse/linkpulse/internal/clicklog"
)

func newRateEngine(t *testing.T) (*Engine, *clicklog.Memory, time.Time) {
	t.Helper()
	store := clicklog.NewMemory()
	e := NewEngine(store, nil)
	now := time.Now()
	e.now = func() time.Time { return now }
	return e, store, now
}

func record(t *testing.T, store *clicklog.Memory, ipHash string, at time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := store.Record(context.Background(), ipHash, at); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestCheckClickRate_CriticalAtTwelveClicks(t *testing.T) {
	t.Parallel()
	e, store, now := newRateEngine(t)
	ipHash := HashIP("203.0.113.7")

	record(t, store, ipHash, now.Add(-time.Minute), 12)

	rate, err := e.CheckClickRate(context.Background(), ipHash)
	if err != nil {
		t.Fatalf("CheckClickRate: %v", err)
	}
	if !rate.Excessive || rate.Count != 12 || rate.Severity != SeverityCritical {
		t.Fatalf("want critical excessive count=12, got %+v", rate)
	}
}

func TestCheckClickRate_Tiers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		clicks    int
		severity  Severity
		excessive bool
	}{
		{2, SeverityNormal, false},
		{3, SeverityWarning, false},
		{4, SeverityWarning, false},
		{5, SeverityWarning, true},
		{9, SeverityWarning, true},
		{10, SeverityCritical, true},
	}
	for _, tc := range cases {
		e, store, now := newRateEngine(t)
		ipHash := HashIP("198.51.100.1")
		record(t, store, ipHash, now.Add(-time.Minute), tc.clicks)

		rate, err := e.CheckClickRate(context.Background(), ipHash)
		if err != nil {
			t.Fatalf("CheckClickRate(%d): %v", tc.clicks, err)
		}
		if rate.Severity != tc.severity || rate.Excessive != tc.excessive {
			t.Fatalf("%d clicks: want %s/excessive=%v, got %+v", tc.clicks, tc.severity, tc.excessive, rate)
		}
	}
}

func TestCheckClickRate_WindowExcludesOldClicks(t *testing.T) {
	t.Parallel()
	e, store, now := newRateEngine(t)
	ipHash := HashIP("198.51.100.2")

	record(t, store, ipHash, now.Add(-10*time.Minute), 20) // outside window
	record(t, store, ipHash, now.Add(-time.Minute), 2)     // inside

	rate, err := e.CheckClickRate(context.Background(), ipHash)
	if err != nil {
		t.Fatalf("CheckClickRate: %v", err)
	}
	if rate.Count != 2 || rate.Severity != SeverityNormal {
		t.Fatalf("old clicks leaked into window: %+v", rate)
	}
}

func TestHashIP_PseudonymizesWithoutLoss(t *testing.T) {
	t.Parallel()

	h := HashIP("203.0.113.7")
	if h == "203.0.113.7" || h == "" {
		t.Fatalf("ip not encoded: %q", h)
	}
	if HashIP("203.0.113.7") != h {
		t.Fatalf("encoding not stable")
	}
	if HashIP("203.0.113.8") == h {
		t.Fatalf("distinct ips collide")
	}
}
