package classify

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// DefaultApplications is the known-application list used by the open
// shortcut. Configurable via assistant.applications.
var DefaultApplications = []string{
	"chrome",
	"firefox",
	"calculator",
	"notepad",
	"terminal",
	"spotify",
	"telegram",
	"discord",
	"slack",
	"vscode",
	"settings",
	"files",
}

const (
	// distanceRatioThreshold accepts a candidate whose normalized
	// edit-distance similarity to the spoken name exceeds 0.70.
	distanceRatioThreshold = 0.70
	// fuzzyConfidenceThreshold accepts a candidate whose subsequence-match
	// confidence exceeds 70 out of 100.
	fuzzyConfidenceThreshold = 70
)

// matchApplication maps a possibly misheard application name to the closest
// known application. A candidate is accepted when either its edit-distance
// ratio or its fuzzy-match confidence clears the threshold; otherwise the
// spoken name is returned verbatim.
func (c *Classifier) matchApplication(spoken string) string {
	spoken = strings.ToLower(strings.TrimSpace(spoken))
	if spoken == "" {
		return spoken
	}

	bestRatio := 0.0
	bestByRatio := ""
	for _, app := range c.apps {
		if r := distanceRatio(spoken, app); r > bestRatio {
			bestRatio = r
			bestByRatio = app
		}
	}
	if bestRatio > distanceRatioThreshold {
		return bestByRatio
	}

	if matches := fuzzy.Find(spoken, c.apps); len(matches) > 0 {
		best := matches[0]
		if fuzzyConfidence(spoken, best.Str) > fuzzyConfidenceThreshold {
			return best.Str
		}
	}

	return spoken
}

// distanceRatio is 1 - dist/maxLen: 1.0 for identical strings, 0.0 for
// entirely different ones.
func distanceRatio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// fuzzyConfidence scores a subsequence match by how much of the candidate the
// spoken name covers, on a 0-100 scale.
func fuzzyConfidence(spoken, candidate string) int {
	if len(candidate) == 0 {
		return 0
	}
	return 100 * len([]rune(spoken)) / len([]rune(candidate))
}
