package verdict

import "math"

// Contributions maps module name to its share of the displayed breakdown, in
// percent. Shares always sum to 100 (within rounding).
type Contributions map[string]float64

// Display weights for the contribution chart. These are presentation weights
// only: the classifier ignores them and uses the ML score alone.
var DefaultWeights = map[string]float64{
	ModuleML:         0.60,
	ModuleLexical:    0.15,
	ModuleReputation: 0.15,
	ModuleBehavior:   0.05,
	ModuleNLP:        0.05,
}

// sumTolerance is how far backend-supplied contributions may drift from 100
// before they are discarded and recomputed locally.
const sumTolerance = 0.5

// ComputeContributions derives per-module contribution shares from normalized
// module scores and the given weights (nil means DefaultWeights). When every
// weighted score is zero the split is equal across all modules; an all-zero
// scan still needs a chart.
func ComputeContributions(scores ModuleScores, weights map[string]float64) Contributions {
	if weights == nil {
		weights = DefaultWeights
	}

	raw := make(map[string]float64, len(Modules))
	var total float64
	for _, m := range Modules {
		r := float64(scores[m]) / 100 * weights[m]
		raw[m] = r
		total += r
	}

	out := make(Contributions, len(Modules))
	if total == 0 {
		share := 100.0 / float64(len(Modules))
		for _, m := range Modules {
			out[m] = share
		}
		return out
	}
	for _, m := range Modules {
		out[m] = raw[m] / total * 100
	}
	return out
}

// ReconcileContributions prefers backend-supplied contributions when they are
// internally consistent (sum to ~100) and falls back to a local computation
// otherwise. An inconsistent chart is worse than a recomputed one.
func ReconcileContributions(supplied Contributions, scores ModuleScores) Contributions {
	if validContributions(supplied) {
		return supplied
	}
	return ComputeContributions(scores, nil)
}

func validContributions(c Contributions) bool {
	if len(c) == 0 {
		return false
	}
	var sum float64
	for _, m := range Modules {
		v, ok := c[m]
		if !ok || v < 0 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-100) <= sumTolerance
}
