package agent

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/model"
)

// Dedup window parameters. Two attempts with near-equal amounts inside
// dedupWindow count as one; the rolling list keeps at most dedupMaxEntries
// attempts, pruned to dedupRetention.
const (
	dedupWindow     = 60 * time.Second
	dedupRetention  = 10 * time.Minute
	dedupMaxEntries = 10
	amountTolerance = 0.01
)

// TrackConversion is the public conversion-reporting operation. It reports
// whether the attempt is eligible to be forwarded to the validator; it
// performs no network I/O itself. The attempt carries the page URL last seen
// by ResolveAttribution.
//
// A false return means one of: untrusted invocation context (recorded in the
// suspicious-activity log), no active attribution, non-positive amount, or a
// duplicate within the dedup window. None of these raises an error: they are
// expected outcomes, not failures.
func (a *Agent) TrackConversion(amount float64, customCommission *float64) bool {
	if err := a.guard.Authorize(); err != nil {
		a.logSuspicious("injection_attempt", err.Error())
		a.log.Warn("conversion call rejected by invocation guard", zap.Error(err))
		return false
	}

	attribution, ok := a.currentAttribution()
	if !ok {
		// Expected no-op: most page views have no affiliate to credit.
		return false
	}

	if amount <= 0 {
		a.log.Debug("conversion rejected: non-positive amount", zap.Float64("amount", amount))
		return false
	}

	attempt := model.ConversionAttempt{
		Amount:           amount,
		CustomCommission: customCommission,
		AffiliateID:      attribution.AffiliateID,
		CampaignID:       attribution.CampaignID,
		Timestamp:        a.now(),
		PageURL:          a.pageURL,
	}
	sig, err := a.SignData(attempt)
	if err != nil {
		a.log.Warn("conversion signature failed", zap.Error(err))
		return false
	}
	attempt.Signature = sig

	recent := a.loadDedupList()
	if isDuplicate(attempt, recent) {
		a.log.Debug("duplicate conversion suppressed",
			zap.Float64("amount", amount),
			zap.String("affiliate", attribution.AffiliateID),
		)
		return false
	}

	recent = append(recent, attempt)
	a.storeDedupList(recent)
	return true
}

// LastAttempt returns the most recent eligible conversion attempt, if any.
// Integrations use it to build the validation request after TrackConversion
// reports eligibility.
func (a *Agent) LastAttempt() (*model.ConversionAttempt, bool) {
	recent := a.loadDedupList()
	if len(recent) == 0 {
		return nil, false
	}
	last := recent[len(recent)-1]
	return &last, true
}

func isDuplicate(attempt model.ConversionAttempt, recent []model.ConversionAttempt) bool {
	for _, prev := range recent {
		if math.Abs(prev.Amount-attempt.Amount) <= amountTolerance &&
			attempt.Timestamp.Sub(prev.Timestamp) < dedupWindow {
			return true
		}
	}
	return false
}

func (a *Agent) loadDedupList() []model.ConversionAttempt {
	var list []model.ConversionAttempt
	a.secureRetrieve(a.storageKey(kindDedup), &list)
	return a.prune(list)
}

func (a *Agent) storeDedupList(list []model.ConversionAttempt) {
	if err := a.secureStore(a.storageKey(kindDedup), a.prune(list)); err != nil {
		a.log.Warn("dedup list write failed", zap.Error(err))
	}
}

// prune drops attempts older than the retention window and keeps only the
// most recent dedupMaxEntries.
func (a *Agent) prune(list []model.ConversionAttempt) []model.ConversionAttempt {
	cutoff := a.now().Add(-dedupRetention)
	kept := list[:0]
	for _, att := range list {
		if att.Timestamp.After(cutoff) {
			kept = append(kept, att)
		}
	}
	if len(kept) > dedupMaxEntries {
		kept = kept[len(kept)-dedupMaxEntries:]
	}
	return kept
}
