package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/phishguard/phishguard/pkg/verdict"
)

func mkVerdict(url string) *verdict.Verdict {
	return &verdict.Verdict{URL: url, Classification: verdict.Safe, ConfidencePercent: 10}
}

func TestPutGet(t *testing.T) {
	c := New(time.Minute, 10)
	v := mkVerdict("https://example.com")
	c.Put("https://example.com", v)

	got := c.Get("https://example.com")
	if got != v {
		t.Fatalf("expected cached verdict back, got %v", got)
	}
	if c.Get("https://example.com/") != nil {
		t.Fatal("trailing-slash variant must be a distinct key")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(time.Minute, 10)
	base := time.Unix(1000, 0)
	c.now = func() time.Time { return base }

	c.Put("https://example.com", mkVerdict("https://example.com"))

	c.now = func() time.Time { return base.Add(59 * time.Second) }
	if c.Get("https://example.com") == nil {
		t.Fatal("entry within TTL must be returned")
	}

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if c.Get("https://example.com") != nil {
		t.Fatal("entry past TTL must not be returned")
	}
	if c.Len() != 0 {
		t.Fatal("expired entry should be evicted on access")
	}
}

func TestLRUEviction(t *testing.T) {
	c := New(time.Minute, 3)
	for i := 0; i < 3; i++ {
		u := fmt.Sprintf("https://site%d.test", i)
		c.Put(u, mkVerdict(u))
	}

	// Touch site0 so site1 becomes the eviction candidate.
	c.Get("https://site0.test")
	c.Put("https://site3.test", mkVerdict("https://site3.test"))

	if c.Len() != 3 {
		t.Fatalf("capacity 3 exceeded: %d entries", c.Len())
	}
	if c.Get("https://site1.test") != nil {
		t.Fatal("least recently used entry should have been evicted")
	}
	if c.Get("https://site0.test") == nil {
		t.Fatal("recently used entry should have survived eviction")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := New(time.Minute, 10)
	c.Put("https://example.com", mkVerdict("https://example.com"))

	v2 := &verdict.Verdict{URL: "https://example.com", Classification: verdict.Phishing, ConfidencePercent: 95}
	c.Put("https://example.com", v2)

	if got := c.Get("https://example.com"); got != v2 {
		t.Fatalf("last writer must win, got %+v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("overwrite must not grow the cache, len=%d", c.Len())
	}
}

func TestReset(t *testing.T) {
	c := New(time.Minute, 10)
	c.Put("https://example.com", mkVerdict("https://example.com"))
	c.Reset()
	if c.Len() != 0 || c.Get("https://example.com") != nil {
		t.Fatal("reset should drop all entries")
	}
}
