package verdict

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  *float64
		want int
	}{
		{"nil is zero", nil, 0},
		{"fractional scales up", fp(0.92), 92},
		{"fractional rounds", fp(0.345), 35},
		{"zero", fp(0), 0},
		{"one is fractional", fp(1), 100},
		{"percent passes through", fp(85.4), 85},
		{"percent rounds up", fp(85.5), 86},
		{"clamped above", fp(140), 100},
		{"clamped below", fp(-3), 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.raw); got != tc.want {
				t.Fatalf("Normalize(%v) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		wantC    Classification
		wantRisk RiskLevel
	}{
		{0, Safe, RiskLow},
		{39, Safe, RiskLow},
		{40, Suspicious, RiskMedium},
		{74, Suspicious, RiskMedium},
		{75, Phishing, RiskHigh},
		{89, Phishing, RiskHigh},
		{90, Phishing, RiskCritical},
		{100, Phishing, RiskCritical},
	}

	for _, tc := range tests {
		c, r := Classify(tc.score)
		if c != tc.wantC || r != tc.wantRisk {
			t.Fatalf("Classify(%d) = (%s, %s), want (%s, %s)", tc.score, c, r, tc.wantC, tc.wantRisk)
		}
	}
}

// The classification must depend on the ML score alone. Cranking every other
// module to 100 while ML stays low must not move the verdict.
func TestClassifyIgnoresNonPrimaryModules(t *testing.T) {
	scores := ModuleScores{
		ModuleML:         30,
		ModuleLexical:    100,
		ModuleReputation: 100,
		ModuleBehavior:   100,
		ModuleNLP:        100,
	}

	c, _ := Classify(scores[ModuleML])
	if c != Safe {
		t.Fatalf("expected Safe with ml=30 regardless of other modules, got %s", c)
	}
}

func TestExtractModuleScoresFlat(t *testing.T) {
	body := `{"modules": {"ml": 0.3, "lexical": 0.8, "reputation": 0.1, "behavior": 0, "nlp": 0.05}}`
	scores, degraded := ExtractModuleScores(body)
	if degraded {
		t.Fatal("flat modules map should not be degraded")
	}
	if scores[ModuleML] != 30 || scores[ModuleLexical] != 80 {
		t.Fatalf("unexpected scores: %v", scores)
	}
}

func TestExtractModuleScoresNested(t *testing.T) {
	body := `{"ensemble_modules": {
		"ml_model": {"score": 0.92},
		"lexical": {"score": 0.5},
		"reputation": {"score": 0.25},
		"behavior": {"score": 0.1},
		"nlp": {"score": 0}
	}}`
	scores, degraded := ExtractModuleScores(body)
	if degraded {
		t.Fatal("nested ensemble_modules should not be degraded")
	}
	if scores[ModuleML] != 92 {
		t.Fatalf("ml_model score not mapped to ml: %v", scores)
	}
	if scores[ModuleReputation] != 25 {
		t.Fatalf("unexpected reputation score: %v", scores)
	}
}

func TestExtractModuleScoresMissing(t *testing.T) {
	scores, degraded := ExtractModuleScores(`{"confidence": 85}`)
	if !degraded {
		t.Fatal("missing module maps must be flagged as degraded")
	}
	for _, m := range Modules {
		if scores[m] != 0 {
			t.Fatalf("degraded extraction must zero all modules, got %v", scores)
		}
	}
}

func contributionSum(c Contributions) float64 {
	var sum float64
	for _, v := range c {
		sum += v
	}
	return sum
}

func TestContributionsSumTo100(t *testing.T) {
	tests := []struct {
		name   string
		scores ModuleScores
	}{
		{"mixed", ModuleScores{ModuleML: 92, ModuleLexical: 40, ModuleReputation: 10, ModuleBehavior: 5, ModuleNLP: 0}},
		{"single module", ModuleScores{ModuleML: 100}},
		{"all max", ModuleScores{ModuleML: 100, ModuleLexical: 100, ModuleReputation: 100, ModuleBehavior: 100, ModuleNLP: 100}},
		{"all zero", ModuleScores{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			c := ComputeContributions(tc.scores, nil)
			if sum := contributionSum(c); math.Abs(sum-100) > 0.1 {
				t.Fatalf("contributions sum to %f, want 100", sum)
			}
		})
	}
}

func TestContributionsAllZeroEqualSplit(t *testing.T) {
	c := ComputeContributions(ModuleScores{}, nil)
	for _, m := range Modules {
		if math.Abs(c[m]-20) > 0.001 {
			t.Fatalf("expected equal 20%% split for zero scores, got %v", c)
		}
	}
}

func TestReconcileContributions(t *testing.T) {
	scores := ModuleScores{ModuleML: 80, ModuleLexical: 20}

	good := Contributions{ModuleML: 70, ModuleLexical: 10, ModuleReputation: 10, ModuleBehavior: 5, ModuleNLP: 5}
	if got := ReconcileContributions(good, scores); got[ModuleML] != 70 {
		t.Fatalf("consistent backend contributions should be kept verbatim, got %v", got)
	}

	// Sums to 120: discard and recompute locally.
	bad := Contributions{ModuleML: 90, ModuleLexical: 10, ModuleReputation: 10, ModuleBehavior: 5, ModuleNLP: 5}
	got := ReconcileContributions(bad, scores)
	if sum := contributionSum(got); math.Abs(sum-100) > 0.1 {
		t.Fatalf("recomputed contributions sum to %f, want 100", sum)
	}
	if got[ModuleML] == 90 {
		t.Fatal("inconsistent backend contributions were not discarded")
	}

	if got := ReconcileContributions(nil, scores); math.Abs(contributionSum(got)-100) > 0.1 {
		t.Fatalf("nil backend contributions should fall back to local computation")
	}
}
