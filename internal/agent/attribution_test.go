package agent

import (
	"testing"
	"time"

	"github.com/linkpulse/linkpulse/internal/model"
)

func TestResolveAttribution_URLParamThenReuse(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestAgent(t)

	rec, err := a.ResolveAttribution("https://shop.example.com/landing?ref=aff123")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected attribution from ref param")
	}
	if rec.AffiliateID != "aff123" || rec.CampaignID != "camp456" || rec.Source != model.SourceURLParam {
		t.Fatalf("bad record: %+v", rec)
	}

	// Later visit without a ref parameter reuses the stored record.
	again, err := a.ResolveAttribution("https://shop.example.com/checkout")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if again == nil || again.AffiliateID != "aff123" {
		t.Fatalf("stored attribution not reused: %+v", again)
	}
	if again.Source != model.SourceExistingSession {
		t.Fatalf("want existing_session source, got %s", again.Source)
	}
}

func TestResolveAttribution_FirstCapturePrecedence(t *testing.T) {
	t.Parallel()
	a, _, clock := newTestAgent(t)

	if _, err := a.ResolveAttribution("https://shop.example.com/?ref=aff123"); err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}

	// Unexpired record, no ref param: original affiliate, never another one.
	*clock = clock.Add(23 * time.Hour)
	rec, err := a.ResolveAttribution("https://shop.example.com/product/42")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec == nil || rec.AffiliateID != "aff123" {
		t.Fatalf("unexpired attribution lost: %+v", rec)
	}

	// A fresh ref param overwrites unconditionally.
	rec, err = a.ResolveAttribution("https://shop.example.com/?ref=aff999")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec.AffiliateID != "aff999" || rec.Source != model.SourceURLParam {
		t.Fatalf("url_param visit did not overwrite: %+v", rec)
	}
}

func TestResolveAttribution_ExpiredRecordIsAbsent(t *testing.T) {
	t.Parallel()
	a, _, clock := newTestAgent(t)

	if _, err := a.ResolveAttribution("https://shop.example.com/?ref=aff123"); err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}

	*clock = clock.Add(retentionWindow + time.Minute)
	rec, err := a.ResolveAttribution("https://shop.example.com/")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec != nil {
		t.Fatalf("expired attribution returned: %+v", rec)
	}
}

func TestResolveAttribution_AffiliateParamRecognized(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestAgent(t)

	rec, err := a.ResolveAttribution("https://shop.example.com/?affiliate=aff777")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec == nil || rec.AffiliateID != "aff777" {
		t.Fatalf("affiliate param ignored: %+v", rec)
	}
}

func TestResolveAttribution_InertWithoutSignal(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestAgent(t)

	rec, err := a.ResolveAttribution("https://shop.example.com/pricing")
	if err != nil {
		t.Fatalf("ResolveAttribution: %v", err)
	}
	if rec != nil {
		t.Fatalf("attribution invented from nothing: %+v", rec)
	}
}
