package scoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phishguard/phishguard/pkg/verdict"
)

func TestScanFullResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{
			"url": "http://evil.test/login",
			"confidence": 92,
			"classification": "Phishing",
			"modules": {"ml": 0.92, "lexical": 0.6, "reputation": 0.4, "behavior": 0.1, "nlp": 0.2},
			"timestamp": "2026-02-07 14:30:45"
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	v, err := c.Scan(context.Background(), "http://evil.test/login")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Classification != verdict.Phishing {
		t.Fatalf("expected Phishing, got %s", v.Classification)
	}
	if v.ConfidencePercent != 92 {
		t.Fatalf("expected confidence 92, got %d", v.ConfidencePercent)
	}
	if v.RiskLevel != verdict.RiskCritical {
		t.Fatalf("expected Critical risk at 92, got %s", v.RiskLevel)
	}
	if v.Degraded {
		t.Fatal("response with modules map must not be degraded")
	}
}

func TestScanNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := New(srv.URL, time.Second)
	_, err := c.Scan(context.Background(), "https://example.com")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestScanServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Scan(context.Background(), "https://example.com")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork on 5xx, got %v", err)
	}
}

func TestReconcileMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"confidence": `},
		{"no primary score", `{"modules": {"lexical": 0.8}}`},
		{"primary score not a number", `{"confidence": "high"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Reconcile("https://example.com", tc.body)
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

// A low ML score stays Safe even when other modules scream: the verdict is a
// function of the primary score alone.
func TestReconcileMLOnlyVerdict(t *testing.T) {
	v, err := Reconcile("https://example.com", `{"modules": {"ml": 0.3, "lexical": 0.8}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Classification != verdict.Safe {
		t.Fatalf("expected Safe with ml=0.3, got %s", v.Classification)
	}
	if v.ModuleScores[verdict.ModuleLexical] != 80 {
		t.Fatalf("lexical score should still be reported: %v", v.ModuleScores)
	}
}

func TestReconcileDegradedResponse(t *testing.T) {
	v, err := Reconcile("https://example.com", `{"confidence": 20}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Degraded {
		t.Fatal("response without module breakdown must be marked degraded")
	}
	if v.Classification != verdict.Safe || v.ConfidencePercent != 20 {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestReconcilePrefersBackendContributions(t *testing.T) {
	body := `{
		"confidence": 50,
		"modules": {"ml": 0.5, "lexical": 0.5},
		"ensemble_contributions": {"ml": 60, "lexical": 15, "reputation": 15, "behavior": 5, "nlp": 5}
	}`
	v, err := Reconcile("https://example.com", body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Contributions[verdict.ModuleML] != 60 {
		t.Fatalf("backend contributions should be kept verbatim, got %v", v.Contributions)
	}
}

func TestScanTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.Scan(ctx, "https://example.com")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
}
