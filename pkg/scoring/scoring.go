// Package scoring talks to the remote scoring service and turns its loosely
// shaped JSON responses into Verdict values. The service's actual feature
// extraction and ML inference live behind POST /api/scan; this side only
// reconciles what comes back.
package scoring

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/pkg/verdict"
)

// ErrNetwork covers timeouts, connection failures and non-2xx replies: the
// service could not be reached or could not answer.
var ErrNetwork = errors.New("scoring service unavailable")

// ErrMalformed covers replies that arrived but cannot be trusted: invalid
// JSON or no recognizable primary score. A missing primary score is a hard
// error rather than a silent 0, so a degraded service can never produce a
// falsely reassuring Safe verdict.
var ErrMalformed = errors.New("malformed scoring response")

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 2
)

// Client is a scoring service client. Safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
}

// New builds a Client against the given /api/scan endpoint. A zero timeout
// uses the default.
func New(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.Logger = nil
	rc.HTTPClient.Timeout = timeout
	return &Client{
		endpoint: endpoint,
		http:     rc.StandardClient(),
	}
}

// Scan submits a URL for scoring and reconciles the response into a Verdict.
// The returned error wraps ErrNetwork or ErrMalformed; callers pick their
// policy with errors.Is (manual scans surface it, the guard fails open).
func (c *Client) Scan(ctx context.Context, rawURL string) (*verdict.Verdict, error) {
	payload, err := sjson.Set("{}", "url", rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader([]byte(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	v, err := Reconcile(rawURL, string(body))
	if err != nil {
		return nil, err
	}
	if v.Degraded {
		utils.Log.Debugf("scoring response for %s carried no module breakdown", rawURL)
	}
	return v, nil
}

// Reconcile builds a Verdict from a raw scoring service response body. The
// classification is always recomputed locally from the primary score; the
// service's own classification string, if any, is ignored.
func Reconcile(rawURL, body string) (*verdict.Verdict, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}

	primary, ok := primaryScore(body)
	if !ok {
		return nil, fmt.Errorf("%w: no primary score field", ErrMalformed)
	}

	scores, degraded := verdict.ExtractModuleScores(body)
	scores[verdict.ModuleML] = primary

	var supplied verdict.Contributions
	if contrib := gjson.Get(body, "ensemble_contributions"); contrib.IsObject() {
		supplied = make(verdict.Contributions)
		contrib.ForEach(func(key, value gjson.Result) bool {
			supplied[key.String()] = value.Float()
			return true
		})
	}

	classification, risk := verdict.Classify(primary)
	return &verdict.Verdict{
		URL:               rawURL,
		Classification:    classification,
		ConfidencePercent: primary,
		RiskLevel:         risk,
		ModuleScores:      scores,
		Contributions:     verdict.ReconcileContributions(supplied, scores),
		Degraded:          degraded,
	}, nil
}

// primaryScore locates the ML score in any of the field names the service has
// used across versions, newest first.
func primaryScore(body string) (int, bool) {
	for _, path := range []string{
		"confidence",
		"confidence_percentage",
		"ensemble_score",
		"ml_confidence",
		"modules.ml",
		"ensemble_modules.ml_model.score",
	} {
		if r := gjson.Get(body, path); r.Exists() && r.Type == gjson.Number {
			f := r.Float()
			return verdict.Normalize(&f), true
		}
	}
	return 0, false
}
