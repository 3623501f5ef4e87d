package risk

import (
	"strings"
	"time"

	"github.com/linkpulse/linkpulse/internal/model"
)

// Cadence and referrer contributions.
const (
	scoreCadenceExcessive = 60
	scoreCadenceSuspect   = 30
	scoreNoReferrer       = 20
	scoreLocalReferrer    = 40

	cadenceExcessivePerMin = 2.0
	cadenceSuspectPerMin   = 1.0
)

// Local-development hosts appearing as referrer in production traffic are a
// spoofing signal.
var localHostMarkers = []string{"localhost", "127.0.0.1", "0.0.0.0", "::1", "192.168."}

// Input carries the signals scored for one event.
type Input struct {
	IP           string
	UserAgent    string
	Referrer     string
	ClickCount   int
	TimeInterval time.Duration
}

// CalculateRiskScore combines bot detection, click cadence and referrer
// quality into one additive score capped at 100. Factors are ordered:
// bot reasons first, then cadence, then referrer.
func (e *Engine) CalculateRiskScore(in Input) model.RiskAssessment {
	score := 0
	var factors []string

	bot := DetectBot(in.UserAgent)
	score += bot.Confidence
	factors = append(factors, bot.Reasons...)

	if perMin := clicksPerMinute(in.ClickCount, in.TimeInterval); perMin > cadenceExcessivePerMin {
		score += scoreCadenceExcessive
		factors = append(factors, "Fréquence de clics excessive")
	} else if perMin > cadenceSuspectPerMin {
		score += scoreCadenceSuspect
		factors = append(factors, "Fréquence de clics suspecte")
	}

	if strings.TrimSpace(in.Referrer) == "" {
		score += scoreNoReferrer
		factors = append(factors, "Referrer manquant")
	} else if isLocalReferrer(in.Referrer) {
		score += scoreLocalReferrer
		factors = append(factors, "Referrer local (spoofing possible)")
	}

	if score > 100 {
		score = 100
	}
	decision := model.DecisionAllow
	if score >= e.blockThreshold {
		decision = model.DecisionBlock
	}
	return model.RiskAssessment{Score: score, Factors: factors, Decision: decision}
}

func clicksPerMinute(count int, interval time.Duration) float64 {
	if count <= 0 || interval <= 0 {
		return 0
	}
	return float64(count) / interval.Minutes()
}

func isLocalReferrer(referrer string) bool {
	lower := strings.ToLower(referrer)
	for _, marker := range localHostMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
