// Package scorer reduces issues and suggestions to a bounded score and
// an approval verdict. Scoring is pure: no I/O, no state.
package scorer

import (
	"fmt"
	"strings"

	"github.com/joescharf/cq/internal/models"
)

// SuggestionPenaltyCap bounds the total score impact of suggestions.
// One point per suggestion, at most this many.
const SuggestionPenaltyCap = 10

// Weights are the per-severity score deductions. They must form a
// strictly descending scale so a single critical issue always outweighs
// any number of capped low-severity penalties.
type Weights struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// DefaultWeights are the canonical deductions.
var DefaultWeights = Weights{Critical: 20, High: 10, Medium: 5, Low: 2}

// Valid reports whether the weights form a strictly descending positive scale.
func (w Weights) Valid() bool {
	return w.Critical > w.High && w.High > w.Medium && w.Medium > w.Low && w.Low > 0
}

func (w Weights) forSeverity(s models.Severity) int {
	switch s {
	case models.SeverityCritical:
		return w.Critical
	case models.SeverityHigh:
		return w.High
	case models.SeverityMedium:
		return w.Medium
	case models.SeverityLow:
		return w.Low
	default:
		return 0
	}
}

// Result is the scorer's output for one artifact.
type Result struct {
	Score    int
	Approved bool
	Summary  string
}

// Score applies the default weights. See ScoreWithWeights.
func Score(issues []models.Issue, suggestions []models.Suggestion, opts models.Options) Result {
	return ScoreWithWeights(issues, suggestions, opts, DefaultWeights)
}

// ScoreWithWeights computes the score and verdict: start at 100,
// subtract per-issue severity weights, subtract one point per
// suggestion capped at SuggestionPenaltyCap, clamp to [0,100].
// Approval requires the score to meet the threshold and no critical
// issue; strict mode additionally forbids high-severity issues.
// Invalid weights fall back to DefaultWeights.
func ScoreWithWeights(issues []models.Issue, suggestions []models.Suggestion, opts models.Options, w Weights) Result {
	if !w.Valid() {
		w = DefaultWeights
	}

	score := 100
	hasCritical := false
	hasHigh := false
	for _, iss := range issues {
		score -= w.forSeverity(iss.Severity)
		switch iss.Severity {
		case models.SeverityCritical:
			hasCritical = true
		case models.SeverityHigh:
			hasHigh = true
		}
	}

	penalty := len(suggestions)
	if penalty > SuggestionPenaltyCap {
		penalty = SuggestionPenaltyCap
	}
	score -= penalty

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	threshold := opts.ApprovalThreshold
	if threshold <= 0 {
		threshold = models.DefaultApprovalThreshold
	}

	approved := score >= threshold && !hasCritical
	if opts.StrictMode && hasHigh {
		approved = false
	}

	return Result{
		Score:    score,
		Approved: approved,
		Summary:  summarize(score, issues, suggestions),
	}
}

// Band returns the categorical label for a score.
func Band(score int) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 70:
		return "acceptable"
	case score >= 50:
		return "needs-improvement"
	default:
		return "problematic"
	}
}

// summarize builds the one-line summary: band label plus issue counts
// by severity and the suggestion count.
func summarize(score int, issues []models.Issue, suggestions []models.Suggestion) string {
	counts := make(map[models.Severity]int)
	for _, iss := range issues {
		counts[iss.Severity]++
	}

	var parts []string
	for _, s := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if n := counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}

	issuePart := "no issues"
	if len(parts) > 0 {
		issuePart = strings.Join(parts, ", ")
	}

	return fmt.Sprintf("%s: %s, %d suggestions", Band(score), issuePart, len(suggestions))
}
