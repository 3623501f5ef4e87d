package agent

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/model"
)

// Affiliate reference query parameters recognized on landing URLs, in
// precedence order.
var refParams = []string{"ref", "affiliate"}

// ResolveAttribution resolves the affiliate credited for this visitor from
// the current page URL.
//
// A reference parameter on the URL establishes a fresh record tagged
// url_param and unconditionally overwrites any stored one; first-click-wins
// across distinct referral links therefore depends on the campaign's landing
// pages not re-appending reference parameters on return visits. Without a
// parameter, the stored record is reused and tagged existing_session. A nil
// record with nil error means tracking is inert for this visitor.
func (a *Agent) ResolveAttribution(pageURL string) (*model.AttributionRecord, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("resolve attribution: %w", err)
	}
	a.pageURL = pageURL

	if affiliateID := refParam(u); affiliateID != "" {
		rec := model.AttributionRecord{
			AffiliateID: affiliateID,
			CampaignID:  a.campaignID,
			CapturedAt:  a.now(),
			Source:      model.SourceURLParam,
		}
		if err := a.secureStore(a.storageKey(kindAttribution), rec); err != nil {
			return nil, fmt.Errorf("resolve attribution: %w", err)
		}
		a.log.Debug("attribution captured",
			zap.String("affiliate", affiliateID),
			zap.String("campaign", a.campaignID),
		)
		return &rec, nil
	}

	var stored model.AttributionRecord
	if !a.secureRetrieve(a.storageKey(kindAttribution), &stored) {
		return nil, nil
	}
	stored.Source = model.SourceExistingSession
	return &stored, nil
}

func refParam(u *url.URL) string {
	q := u.Query()
	for _, p := range refParams {
		if v := q.Get(p); v != "" {
			return v
		}
	}
	return ""
}

// currentAttribution returns the stored record without consulting the URL.
func (a *Agent) currentAttribution() (*model.AttributionRecord, bool) {
	var stored model.AttributionRecord
	if !a.secureRetrieve(a.storageKey(kindAttribution), &stored) {
		return nil, false
	}
	return &stored, true
}
