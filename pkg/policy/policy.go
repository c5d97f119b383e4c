// Package policy decides whether a navigation target is worth scoring at all
// and whether a returned verdict warrants blocking.
package policy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// SkipReason explains why a URL was not sent to the scoring service. Skipping
// is a performance/UX optimization, not a security boundary: skipped URLs are
// trusted unconditionally, so a compromised allow-listed domain is a known
// blind spot.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipInternalScheme SkipReason = "internal-scheme"
	SkipAllowlisted    SkipReason = "allowlisted"
	SkipSearchResults  SkipReason = "search-results"
)

// searchEngine matches result pages of well-known search engines. The host
// must be the engine hostname itself or a dot-separated subdomain of it, so
// lookalikes such as bing.com.attacker.test never match. Result pages churn
// constantly and scoring them adds latency to every search.
type searchEngine struct {
	host       string
	pathPrefix string
}

var searchEngines = []searchEngine{
	{"google.com", "/search"},
	{"bing.com", "/search"},
	{"duckduckgo.com", "/"},
	{"search.yahoo.com", "/search"},
	{"yandex.com", "/search"},
	{"yandex.ru", "/search"},
}

// Policy holds the allow-list and skip rules. Immutable after construction.
type Policy struct {
	allowed []string
}

// New validates and lowercases the configured allow-list. Entries match
// exactly or as a parent domain of the navigation host. Bare public suffixes
// ("com", "co.uk") are rejected: they would allow-list half the web.
func New(allowlist []string) (*Policy, error) {
	p := &Policy{}
	for _, raw := range allowlist {
		entry := strings.ToLower(strings.TrimSpace(raw))
		entry = strings.TrimPrefix(entry, "*.")
		entry = strings.Trim(entry, ".")
		if entry == "" {
			continue
		}
		if _, err := publicsuffix.Domain(entry); err != nil {
			return nil, fmt.Errorf("allowlist entry %q is not a registrable domain: %v", raw, err)
		}
		p.allowed = append(p.allowed, entry)
	}
	return p, nil
}

// ShouldQuery reports whether the scoring service should be asked about url.
// A false return means default-allow with zero latency.
func (p *Policy) ShouldQuery(rawURL string) (bool, SkipReason) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, SkipInternalScheme
	}

	// Only navigable web resources get scored. chrome://, about:, file:,
	// extension pages and the like are never phishing targets we can act on.
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, SkipInternalScheme
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false, SkipInternalScheme
	}

	for _, allowed := range p.allowed {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return false, SkipAllowlisted
		}
	}

	for _, se := range searchEngines {
		if (host == se.host || strings.HasSuffix(host, "."+se.host)) && strings.HasPrefix(u.Path, se.pathPrefix) {
			return false, SkipSearchResults
		}
	}

	return true, SkipNone
}

// Allowlisted reports whether host is covered by the allow-list.
func (p *Policy) Allowlisted(host string) bool {
	host = strings.ToLower(host)
	for _, allowed := range p.allowed {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}
