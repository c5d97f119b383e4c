package policy

import (
	"testing"

	"github.com/phishguard/phishguard/pkg/verdict"
)

func mustPolicy(t *testing.T, allowlist []string) *Policy {
	t.Helper()
	p, err := New(allowlist)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return p
}

func TestShouldQuery(t *testing.T) {
	p := mustPolicy(t, []string{"github.com", "*.google.com"})

	tests := []struct {
		url        string
		wantQuery  bool
		wantReason SkipReason
	}{
		{"https://unknown-site.test/login", true, SkipNone},
		{"http://evil.test", true, SkipNone},
		{"chrome://settings", false, SkipInternalScheme},
		{"about:blank", false, SkipInternalScheme},
		{"file:///etc/hosts", false, SkipInternalScheme},
		{"chrome-extension://abcdef/popup.html", false, SkipInternalScheme},
		{"https://github.com/x", false, SkipAllowlisted},
		{"https://gist.github.com/x", false, SkipAllowlisted},
		{"https://github.com.evil.test/", true, SkipNone},
		{"https://notgithub.com/", true, SkipNone},
		{"https://www.google.com/search?q=phishing", false, SkipAllowlisted},
		{"https://www.bing.com/search?q=x", false, SkipSearchResults},
		{"https://duckduckgo.com/?q=x", false, SkipSearchResults},
		{"https://yandex.ru/search/?text=x", false, SkipSearchResults},
		{"https://www.bing.com/account", true, SkipNone},
	}

	for _, tc := range tests {
		got, reason := p.ShouldQuery(tc.url)
		if got != tc.wantQuery || reason != tc.wantReason {
			t.Fatalf("ShouldQuery(%q) = (%v, %q), want (%v, %q)", tc.url, got, reason, tc.wantQuery, tc.wantReason)
		}
	}
}

func TestSearchEngineLookalikesAreQueried(t *testing.T) {
	p := mustPolicy(t, nil)

	// Hosts that merely contain an engine name must still be scored; only the
	// engine host itself or its subdomains are trusted.
	lookalikes := []string{
		"https://www.bing.com.attacker.test/search",
		"https://google.com.evil.test/search?q=x",
		"https://notbing.com/search",
		"https://duckduckgo.com.phish.test/",
		"https://search.yahoo.com.attacker.test/search",
	}
	for _, u := range lookalikes {
		if got, reason := p.ShouldQuery(u); !got {
			t.Fatalf("ShouldQuery(%q) = (false, %q), lookalike must be scored", u, reason)
		}
	}
}

func TestNewRejectsPublicSuffix(t *testing.T) {
	if _, err := New([]string{"com"}); err == nil {
		t.Fatal("bare public suffix must be rejected")
	}
	if _, err := New([]string{"co.uk"}); err == nil {
		t.Fatal("multi-label public suffix must be rejected")
	}
	if _, err := New([]string{"example.co.uk"}); err != nil {
		t.Fatalf("registrable domain should be accepted: %v", err)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		classification verdict.Classification
		want           Action
	}{
		{verdict.Safe, Allow},
		{verdict.Suspicious, Allow},
		{verdict.Phishing, Block},
	}

	for _, tc := range tests {
		v := &verdict.Verdict{Classification: tc.classification}
		if got := Decide(v); got != tc.want {
			t.Fatalf("Decide(%s) = %s, want %s", tc.classification, got, tc.want)
		}
	}

	if Decide(nil) != Allow {
		t.Fatal("nil verdict must allow")
	}
}
