package verdict

import (
	"math"

	"github.com/tidwall/gjson"
)

// Classification is the final call for a scanned URL.
type Classification string

const (
	Safe       Classification = "Safe"
	Suspicious Classification = "Suspicious"
	Phishing   Classification = "Phishing"
)

// RiskLevel is informational only; it never feeds back into the classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Detection modules reported by the scoring service. Only ML drives the
// verdict; the rest are shown for explanation.
const (
	ModuleML         = "ml"
	ModuleLexical    = "lexical"
	ModuleReputation = "reputation"
	ModuleBehavior   = "behavior"
	ModuleNLP        = "nlp"
)

// Modules lists all known module names in display order.
var Modules = []string{ModuleML, ModuleLexical, ModuleReputation, ModuleBehavior, ModuleNLP}

// Classification thresholds on the normalized primary score. These mirror the
// scoring service's published policy and are a shared contract, not a local
// tunable.
const (
	PhishingThreshold   = 75
	SuspiciousThreshold = 40
)

// ModuleScores maps module name to a normalized percentage in [0,100].
type ModuleScores map[string]int

// Verdict is the immutable outcome of one scan.
type Verdict struct {
	URL               string         `json:"url"`
	Classification    Classification `json:"classification"`
	ConfidencePercent int            `json:"confidence_percent"`
	RiskLevel         RiskLevel      `json:"risk_level"`
	ModuleScores      ModuleScores   `json:"module_scores"`
	Contributions     Contributions  `json:"contributions"`

	// Degraded is true when the scoring service response carried no module
	// breakdown and all non-primary scores were defaulted to zero. Callers
	// decide whether to surface this (manual scans) or ignore it (guard).
	Degraded bool `json:"degraded,omitempty"`
}

// Normalize converts a raw module score to an integer percentage. The scoring
// service mixes fractional (0-1) and percentage (0-100) scales depending on
// the field; anything in [0,1] is treated as fractional. A nil score yields 0:
// missing evidence is read as "no evidence of risk", a deliberate fail-open
// default for non-primary modules.
func Normalize(raw *float64) int {
	if raw == nil {
		return 0
	}
	v := *raw
	if v >= 0 && v <= 1 {
		v *= 100
	}
	p := int(math.Round(v))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Classify maps the normalized primary (ML) score to a classification and
// risk level. It is a pure function of that single score: non-primary module
// scores must never influence the verdict.
func Classify(primaryScorePercent int) (Classification, RiskLevel) {
	switch {
	case primaryScorePercent >= PhishingThreshold:
		return Phishing, phishingRisk(primaryScorePercent)
	case primaryScorePercent >= SuspiciousThreshold:
		return Suspicious, RiskMedium
	default:
		return Safe, RiskLow
	}
}

func phishingRisk(score int) RiskLevel {
	switch {
	case score >= 90:
		return RiskCritical
	case score >= 70:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// ExtractModuleScores pulls per-module scores out of a scoring service
// response body. It accepts either the flat "modules" map of raw numbers or
// the older nested "ensemble_modules" map of {score: n} objects, trying the
// flat shape first. When neither is present every module is reported as 0 and
// degraded is true so the caller can tell "all clear" apart from "no data".
func ExtractModuleScores(body string) (scores ModuleScores, degraded bool) {
	scores = make(ModuleScores, len(Modules))
	for _, m := range Modules {
		scores[m] = 0
	}

	flat := gjson.Get(body, "modules")
	if flat.IsObject() {
		for _, m := range Modules {
			if v := flat.Get(m); v.Exists() {
				f := v.Float()
				scores[m] = Normalize(&f)
			}
		}
		return scores, false
	}

	nested := gjson.Get(body, "ensemble_modules")
	if nested.IsObject() {
		for _, m := range Modules {
			key := m
			if m == ModuleML {
				// The nested shape predates the flat one and spells ML out.
				key = "ml_model"
			}
			if v := nested.Get(key + ".score"); v.Exists() {
				f := v.Float()
				scores[m] = Normalize(&f)
			}
		}
		return scores, false
	}

	return scores, true
}
