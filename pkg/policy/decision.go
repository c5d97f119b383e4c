package policy

import "github.com/phishguard/phishguard/pkg/verdict"

// Action is what the guard does with a navigation once a verdict exists.
type Action string

const (
	Allow Action = "allow"
	Block Action = "block"
)

// Decide maps a verdict to a navigation action. Only Phishing blocks;
// Suspicious passes through with a passive badge so medium-confidence calls
// never interrupt the user.
func Decide(v *verdict.Verdict) Action {
	if v != nil && v.Classification == verdict.Phishing {
		return Block
	}
	return Allow
}
