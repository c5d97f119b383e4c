// Package guard implements the navigation interceptor: it takes top-level
// navigation events, consults the guard policy, the decision cache and the
// scoring service, and turns Phishing verdicts into a redirect to the warning
// surface exactly once per navigation.
package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/pkg/cache"
	"github.com/phishguard/phishguard/pkg/policy"
	"github.com/phishguard/phishguard/pkg/storage"
	"github.com/phishguard/phishguard/pkg/verdict"
)

// Scorer is the remote scoring client surface the interceptor needs.
type Scorer interface {
	Scan(ctx context.Context, url string) (*verdict.Verdict, error)
}

// BlockStore persists block records across navigation contexts.
// *storage.DB satisfies it.
type BlockStore interface {
	PutBlockRecord(ctx context.Context, rec storage.BlockRecord) error
	GetBlockRecord(ctx context.Context, tabID int64) (*storage.BlockRecord, error)
	DeleteBlockRecord(ctx context.Context, tabID int64) error
}

const (
	// DefaultCooldown is how long a tab's navigations are suppressed after a
	// block redirect. Long enough to cover the redirect and the user's
	// explicit "proceed anyway", short enough that a renewed visit gets
	// checked again.
	DefaultCooldown = 10 * time.Second

	// DefaultPendingTTL bounds how long a (tab, url) check can stay pending.
	// A hung scorer request must not starve that pair forever.
	DefaultPendingTTL = 20 * time.Second
)

// Decision is the outcome of one navigation event.
type Decision struct {
	Action     policy.Action     `json:"action"`
	Verdict    *verdict.Verdict  `json:"verdict,omitempty"`
	SkipReason policy.SkipReason `json:"skip_reason,omitempty"`
	WarningURL string            `json:"warning_url,omitempty"`
	FromCache  bool              `json:"from_cache,omitempty"`

	// Dropped: a check for this exact (tab, url) pair was already in flight.
	Dropped bool `json:"dropped,omitempty"`
	// Stale: a newer navigation superseded this one before the verdict
	// arrived; the verdict was cached but not acted on.
	Stale bool `json:"stale,omitempty"`
	// FailedOpen: the scoring service errored and the navigation was allowed
	// without a verdict.
	FailedOpen bool `json:"failed_open,omitempty"`
}

// Config wires an Interceptor. Policy, Scorer, Cache and Blocks are required.
type Config struct {
	Policy      *policy.Policy
	Scorer      Scorer
	Cache       *cache.Cache
	Blocks      BlockStore
	WarningPath string        // defaults to /warning
	Cooldown    time.Duration // defaults to DefaultCooldown
	PendingTTL  time.Duration // defaults to DefaultPendingTTL
}

type pendingKey struct {
	tabID int64
	url   string
}

// Interceptor owns all per-session guard state: pending checks, the redirect
// suppression set and per-tab badge state. Safe for concurrent use; checks
// for distinct tabs run independently.
type Interceptor struct {
	policy      *policy.Policy
	scorer      Scorer
	cache       *cache.Cache
	blocks      BlockStore
	warningPath string
	cooldown    time.Duration
	pendingTTL  time.Duration

	mu       sync.Mutex
	pending  map[pendingKey]time.Time // in-flight checks, value = expiry
	suppress map[int64]time.Time      // tabs mid-redirect, value = deadline
	navSeq   map[int64]uint64         // latest navigation per tab
	badges   map[int64]verdict.Classification

	now func() time.Time
}

func New(cfg Config) *Interceptor {
	if cfg.WarningPath == "" {
		cfg.WarningPath = "/warning"
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	return &Interceptor{
		policy:      cfg.Policy,
		scorer:      cfg.Scorer,
		cache:       cfg.Cache,
		blocks:      cfg.Blocks,
		warningPath: cfg.WarningPath,
		cooldown:    cfg.Cooldown,
		pendingTTL:  cfg.PendingTTL,
		pending:     make(map[pendingKey]time.Time),
		suppress:    make(map[int64]time.Time),
		navSeq:      make(map[int64]uint64),
		badges:      make(map[int64]verdict.Classification),
		now:         time.Now,
	}
}

// HandleNavigation processes one top-level navigation event for a tab.
// Sub-frame navigations must be filtered out by the caller (mainFrame=false
// returns Allow untouched). On any scorer error the navigation is allowed:
// the guard never blocks on uncertainty.
func (i *Interceptor) HandleNavigation(ctx context.Context, tabID int64, rawURL string, mainFrame bool) Decision {
	if !mainFrame {
		return Decision{Action: policy.Allow}
	}

	i.mu.Lock()
	now := i.now()

	// The redirect to the warning surface fires its own navigation event.
	// Re-checking it would block the warning page and loop forever.
	if deadline, ok := i.suppress[tabID]; ok {
		if now.Before(deadline) {
			i.mu.Unlock()
			return Decision{Action: policy.Allow, SkipReason: "redirect-suppressed"}
		}
		delete(i.suppress, tabID)
	}

	key := pendingKey{tabID: tabID, url: rawURL}
	if expiry, ok := i.pending[key]; ok && now.Before(expiry) {
		i.mu.Unlock()
		return Decision{Action: policy.Allow, Dropped: true}
	}
	i.pending[key] = now.Add(i.pendingTTL)
	i.navSeq[tabID]++
	seq := i.navSeq[tabID]
	i.mu.Unlock()

	if ok, reason := i.policy.ShouldQuery(rawURL); !ok {
		i.finish(key)
		i.setBadge(tabID, "")
		return Decision{Action: policy.Allow, SkipReason: reason}
	}

	fromCache := true
	v := i.cache.Get(rawURL)
	if v == nil {
		fromCache = false
		scanned, err := i.scorer.Scan(ctx, rawURL)
		if err != nil {
			i.finish(key)
			utils.Log.Warnf("guard: scoring %s failed, allowing navigation: %v", rawURL, err)
			return Decision{Action: policy.Allow, FailedOpen: true}
		}
		v = scanned
		i.cache.Put(rawURL, v)
	}

	i.mu.Lock()
	delete(i.pending, key)
	if i.navSeq[tabID] != seq {
		// A newer navigation owns this tab now. The verdict stays cached but
		// must not drive a redirect against the newer target.
		i.mu.Unlock()
		return Decision{Action: policy.Allow, Verdict: v, Stale: true, FromCache: fromCache}
	}
	i.mu.Unlock()

	i.setBadge(tabID, v.Classification)

	if policy.Decide(v) != policy.Block {
		return Decision{Action: policy.Allow, Verdict: v, FromCache: fromCache}
	}

	rec := storage.BlockRecord{
		TabID:             tabID,
		OriginalURL:       rawURL,
		Classification:    string(v.Classification),
		ConfidencePercent: v.ConfidencePercent,
		RiskLevel:         string(v.RiskLevel),
	}
	if err := i.blocks.PutBlockRecord(ctx, rec); err != nil {
		// Without a readable block record the warning surface would show an
		// empty page; allowing is the lesser harm.
		utils.Log.Errorf("guard: persisting block record for tab %d failed, allowing: %v", tabID, err)
		return Decision{Action: policy.Allow, Verdict: v, FailedOpen: true, FromCache: fromCache}
	}

	i.mu.Lock()
	i.suppress[tabID] = i.now().Add(i.cooldown)
	i.mu.Unlock()

	utils.Log.Infof("guard: blocked tab %d navigation to %s (%s %d%%)", tabID, rawURL, v.Classification, v.ConfidencePercent)
	return Decision{
		Action:     policy.Block,
		Verdict:    v,
		WarningURL: fmt.Sprintf("%s?tab=%d", i.warningPath, tabID),
		FromCache:  fromCache,
	}
}

// NavigationComplete clears the redirect suppression for a tab as soon as the
// warning surface has loaded, instead of waiting out the cooldown.
func (i *Interceptor) NavigationComplete(tabID int64) {
	i.mu.Lock()
	delete(i.suppress, tabID)
	i.mu.Unlock()
}

// Override deletes the tab's block record and opens a suppression window so
// the immediately following navigation to the original URL passes unchecked.
// It returns the original URL to navigate to. Called by the warning surface's
// confirmed "proceed anyway" action.
func (i *Interceptor) Override(ctx context.Context, tabID int64) (string, error) {
	rec, err := i.blocks.GetBlockRecord(ctx, tabID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", fmt.Errorf("no block record for tab %d", tabID)
	}
	if err := i.blocks.DeleteBlockRecord(ctx, tabID); err != nil {
		return "", err
	}

	i.mu.Lock()
	i.suppress[tabID] = i.now().Add(i.cooldown)
	i.mu.Unlock()

	utils.Log.Infof("guard: tab %d override, proceeding to %s", tabID, rec.OriginalURL)
	return rec.OriginalURL, nil
}

// TabClosed drops every trace of a closed tab: pending checks, suppression,
// sequence counter, badge and its block record. Without it navSeq and badges
// would grow one entry per tab for the daemon's lifetime.
func (i *Interceptor) TabClosed(ctx context.Context, tabID int64) error {
	i.mu.Lock()
	for key := range i.pending {
		if key.tabID == tabID {
			delete(i.pending, key)
		}
	}
	delete(i.suppress, tabID)
	delete(i.navSeq, tabID)
	delete(i.badges, tabID)
	i.mu.Unlock()

	return i.blocks.DeleteBlockRecord(ctx, tabID)
}

// Badge reports the passive indicator state for a tab: the classification of
// its last scored navigation, or empty when nothing was scored.
func (i *Interceptor) Badge(tabID int64) verdict.Classification {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.badges[tabID]
}

// Reset drops all in-memory guard state. Block records are durable and
// untouched.
func (i *Interceptor) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pending = make(map[pendingKey]time.Time)
	i.suppress = make(map[int64]time.Time)
	i.navSeq = make(map[int64]uint64)
	i.badges = make(map[int64]verdict.Classification)
}

func (i *Interceptor) finish(key pendingKey) {
	i.mu.Lock()
	delete(i.pending, key)
	i.mu.Unlock()
}

func (i *Interceptor) setBadge(tabID int64, c verdict.Classification) {
	i.mu.Lock()
	if c == "" {
		delete(i.badges, tabID)
	} else {
		i.badges[tabID] = c
	}
	i.mu.Unlock()
}
