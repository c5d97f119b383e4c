// Package inspect provides local URL inspection used to enrich manual scan
// output when the scoring service response carries no module breakdown. All
// of it is display-only: nothing here ever feeds the classifier.
package inspect

import (
	"math"
	"net/url"
	"strings"

	"github.com/phishguard/phishguard/internal/utils"
)

// LexicalReport is a heuristic risk estimate from URL shape alone.
type LexicalReport struct {
	ScorePercent int      `json:"score_percent"`
	Flags        []string `json:"flags"`
}

var suspiciousTLDs = []string{".xyz", ".top", ".tk", ".ml", ".ga", ".cf", ".gq", ".pw", ".cc"}

var suspiciousWords = []string{"verify", "secure", "account", "update", "login", "signin", "confirm", "banking"}

// Lexical scores a URL on simple structural signals: length, IP-literal
// hosts, throwaway TLDs, credential bait words. Capped at 100.
func Lexical(rawURL string) LexicalReport {
	var score float64
	var flags []string

	u, err := url.Parse(rawURL)
	if err != nil {
		return LexicalReport{}
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case len(rawURL) > 100:
		score += 0.25
		flags = append(flags, "very long URL")
	case len(rawURL) > 75:
		score += 0.15
		flags = append(flags, "long URL")
	}

	if utils.IsIP(host) {
		score += 0.30
		flags = append(flags, "IP address instead of domain")
	}

	for _, tld := range suspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			score += 0.25
			flags = append(flags, "suspicious TLD "+tld)
			break
		}
	}

	if strings.Contains(rawURL, "@") {
		score += 0.20
		flags = append(flags, "@ in URL")
	}

	dots := strings.Count(host, ".")
	switch {
	case dots > 3:
		score += 0.10
		flags = append(flags, "deeply nested subdomains")
	case dots > 2:
		score += 0.05
	}

	hyphens := strings.Count(host, "-")
	switch {
	case hyphens > 3:
		score += 0.10
		flags = append(flags, "many hyphens in domain")
	case hyphens > 1:
		score += 0.05
	}

	if len(host) > 40 {
		score += 0.10
		flags = append(flags, "unusually long domain")
	}

	for _, w := range suspiciousWords {
		if strings.Contains(host, w) {
			score += 0.10
			flags = append(flags, "credential keyword in domain")
			break
		}
	}

	if score > 1 {
		score = 1
	}
	return LexicalReport{
		ScorePercent: int(math.Round(score * 100)),
		Flags:        flags,
	}
}
