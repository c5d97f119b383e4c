package inspect

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/weppos/publicsuffix-go/publicsuffix"

	"github.com/phishguard/phishguard/internal/utils"
)

// DomainAgeReport carries the WHOIS creation date for a scanned host's
// registrable domain. Freshly registered domains are a classic phishing tell,
// but like everything in this package it is informational only.
type DomainAgeReport struct {
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	AgeDays   int       `json:"age_days"`
}

// DomainAge looks up the WHOIS creation date of the URL's registrable domain.
// IP-literal hosts have no registration to look up.
func DomainAge(rawURL string) (*DomainAgeReport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || utils.IsIP(host) {
		return nil, fmt.Errorf("no registrable domain in %q", rawURL)
	}

	domain, err := publicsuffix.Domain(host)
	if err != nil {
		return nil, err
	}

	raw, err := whois.Whois(domain)
	if err != nil {
		return nil, err
	}
	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Domain == nil || parsed.Domain.CreatedDateInTime == nil {
		return nil, fmt.Errorf("no creation date in WHOIS for %s", domain)
	}

	created := *parsed.Domain.CreatedDateInTime
	report := &DomainAgeReport{
		Domain:    domain,
		CreatedAt: created,
		AgeDays:   int(time.Since(created).Hours() / 24),
	}
	utils.Log.Debugf("whois: %s registered %s (%d days ago)", domain, created.Format("2006-01-02"), report.AgeDays)
	return report, nil
}
