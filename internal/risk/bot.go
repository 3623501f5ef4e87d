package risk

import (
	"regexp"
	"strings"
)

// Confidence contributions per pattern tier. Tiers are additive, not
// mutually exclusive; the total is capped at 100.
const (
	scoreCritical      = 90
	scoreKnownCrawler  = 70
	scoreShortUA       = 60
	scoreGenericUA     = 50
	scoreMissingEngine = 40
	scoreSelfReference = 95

	minUALength  = 20
	botThreshold = 50
)

// trackerName flags user agents that embed the tracking system's own name,
// a manipulation attempt.
const trackerName = "linkpulse"

// Explicit automation signatures: headless browsers, scripting stacks,
// generic HTTP clients.
var criticalPatterns = compile([]string{
	`(?i)headless`,
	`(?i)phantomjs`,
	`(?i)selenium`,
	`(?i)webdriver`,
	`(?i)puppeteer`,
	`(?i)playwright`,
	`(?i)scrapy`,
	`(?i)python-requests`,
	`(?i)python-urllib`,
	`(?i)\bcurl/`,
	`(?i)\bwget/`,
	`(?i)java/`,
	`(?i)go-http-client`,
	`(?i)okhttp`,
	`(?i)node-fetch`,
	`(?i)axios/`,
	`(?i)libwww`,
	`(?i)httpclient`,
})

// Known search/social crawlers: legitimate, but never convert.
var crawlerPatterns = compile([]string{
	`(?i)googlebot`,
	`(?i)bingbot`,
	`(?i)yandexbot`,
	`(?i)baiduspider`,
	`(?i)duckduckbot`,
	`(?i)slurp`,
	`(?i)facebookexternalhit`,
	`(?i)twitterbot`,
	`(?i)linkedinbot`,
	`(?i)applebot`,
})

// Placeholder strings that never occur as a full real-browser user agent.
var genericUAs = map[string]struct{}{
	"mozilla/5.0": {},
	"mozilla/4.0": {},
	"user-agent":  {},
	"browser":     {},
	"test":        {},
}

// Every real browser carries at least one engine token.
var engineTokens = []string{"gecko", "webkit", "trident", "presto", "blink"}

func compile(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// BotAssessment is the result of user-agent analysis.
type BotAssessment struct {
	IsBot      bool
	Confidence int
	Reasons    []string
}

// DetectBot scores a user-agent string against three independent pattern
// tiers. Reason strings are kept in French for wire compatibility with the
// dashboards consuming them.
func DetectBot(userAgent string) BotAssessment {
	ua := strings.TrimSpace(userAgent)
	lower := strings.ToLower(ua)

	confidence := 0
	var reasons []string

	for _, re := range criticalPatterns {
		if m := re.FindString(ua); m != "" {
			confidence += scoreCritical
			reasons = append(reasons, "Signature d'automatisation détectée: "+strings.ToLower(m))
			break
		}
	}

	for _, re := range crawlerPatterns {
		if m := re.FindString(ua); m != "" {
			confidence += scoreKnownCrawler
			reasons = append(reasons, "Robot d'indexation connu: "+strings.ToLower(m))
			break
		}
	}

	if len(ua) < minUALength {
		confidence += scoreShortUA
		reasons = append(reasons, "User-agent trop court ou manquant")
	}
	if _, ok := genericUAs[lower]; ok {
		confidence += scoreGenericUA
		reasons = append(reasons, "User-agent générique suspect")
	}
	if ua != "" && !hasEngineToken(lower) {
		confidence += scoreMissingEngine
		reasons = append(reasons, "Moteur de navigateur attendu absent")
	}
	if strings.Contains(lower, trackerName) {
		confidence += scoreSelfReference
		reasons = append(reasons, "Nom du système de tracking dans le user-agent")
	}

	if confidence > 100 {
		confidence = 100
	}
	return BotAssessment{
		IsBot:      confidence >= botThreshold,
		Confidence: confidence,
		Reasons:    reasons,
	}
}

func hasEngineToken(lowerUA string) bool {
	for _, tok := range engineTokens {
		if strings.Contains(lowerUA, tok) {
			return true
		}
	}
	return false
}
