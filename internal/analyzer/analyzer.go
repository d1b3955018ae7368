// Package analyzer turns raw artifact text into ordered issues and
// suggestions. Analysis is deterministic and side-effect-free: the same
// text, key, and options always produce the same output in the same
// order, which is what makes history diffing meaningful.
package analyzer

import (
	"fmt"
	"path"
	"strings"

	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/rules"
)

// maxExcerptLen bounds code excerpts copied into findings.
const maxExcerptLen = 120

// Analyzer runs the shared rule catalog plus per-call custom rules over
// artifact text. It holds no mutable state and is safe for concurrent
// use across any number of artifacts.
type Analyzer struct {
	catalog *rules.Catalog

	// Warnf, when set, receives non-fatal diagnostics such as skipped
	// custom rules. It must be safe for concurrent use.
	Warnf func(format string, args ...any)
}

// New returns an Analyzer over the given catalog.
func New(catalog *rules.Catalog) *Analyzer {
	return &Analyzer{catalog: catalog}
}

// Analyze evaluates every applicable rule against the text and maps
// findings to issues and suggestions per each rule's declared outcome.
// Empty input is a defined non-error: no findings at all.
func (a *Analyzer) Analyze(text, artifactKey string, opts models.Options) ([]models.Issue, []models.Suggestion) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	fileType := DetectFileType(artifactKey, text)
	active := a.effectiveRules(fileType, opts)

	var issues []models.Issue
	var suggestions []models.Suggestion
	seenIssue := make(map[string]bool)
	seenSuggestion := make(map[string]bool)

	for _, r := range active {
		findings, failed := evaluate(r, text)
		if failed {
			// One faulty rule must not abort the run; surface the gap
			// as a low-severity finding instead of dropping it.
			desc := fmt.Sprintf("analysis incomplete: rule %s failed", r.ID())
			if !seenIssue[desc] {
				seenIssue[desc] = true
				issues = append(issues, models.Issue{
					Severity:       models.SeverityLow,
					Description:    desc,
					Recommendation: "Re-run the review; if the failure persists, fix or remove the rule.",
				})
			}
			continue
		}
		if len(findings) == 0 {
			continue
		}

		out := r.Outcome()
		if out.IsIssue() {
			if seenIssue[out.Description] {
				continue
			}
			seenIssue[out.Description] = true
			f := findings[0]
			line, col := lineCol(text, f.Offset)
			issues = append(issues, models.Issue{
				Severity:       out.Severity,
				Description:    out.Description,
				Location:       &models.Location{Line: line, Column: col},
				CodeExcerpt:    excerpt(f.MatchedText),
				Recommendation: out.Recommendation,
			})
			continue
		}

		if seenSuggestion[out.Description] {
			continue
		}
		seenSuggestion[out.Description] = true
		suggestions = append(suggestions, models.Suggestion{
			Category:    out.Category,
			Description: out.Description,
			Benefit:     out.Recommendation,
			BeforeCode:  excerpt(findings[0].MatchedText),
		})
	}

	return issues, suggestions
}

// effectiveRules assembles the rule set for one call: catalog rules for
// the file type, minus gated groups, minus ignored IDs, plus custom
// rules compiled from the options. The shared catalog is never mutated.
func (a *Analyzer) effectiveRules(fileType string, opts models.Options) []rules.Rule {
	var active []rules.Rule
	for _, r := range a.catalog.RulesFor(fileType) {
		if !groupEnabled(r.Group(), opts) {
			continue
		}
		if ignored(r.ID(), opts.IgnorePatterns) {
			continue
		}
		active = append(active, r)
	}

	for _, spec := range opts.CustomRules {
		r, err := rules.Compile(spec)
		if err != nil {
			a.warnf("skipping custom rule: %v", err)
			continue
		}
		if !rules.Applies(r, fileType) || ignored(r.ID(), opts.IgnorePatterns) {
			continue
		}
		active = append(active, r)
	}
	return active
}

func groupEnabled(g rules.Group, opts models.Options) bool {
	switch g {
	case rules.GroupSecurity:
		return opts.CheckSecurity
	case rules.GroupAccessibility:
		return opts.CheckAccessibility
	case rules.GroupPerformance:
		return opts.CheckPerformance
	default:
		return true
	}
}

// ignored reports whether a rule ID matches any ignore pattern. Patterns
// use path.Match globs; a malformed pattern falls back to an exact
// string comparison.
func ignored(id string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, id); err == nil && ok {
			return true
		}
		if p == id {
			return true
		}
	}
	return false
}

// evaluate runs a single rule, converting a panic inside the rule into
// a failure flag so the rest of the catalog still executes.
func evaluate(r rules.Rule, text string) (findings []rules.Finding, failed bool) {
	defer func() {
		if recover() != nil {
			findings = nil
			failed = true
		}
	}()
	return r.Evaluate(text), false
}

func (a *Analyzer) warnf(format string, args ...any) {
	if a.Warnf != nil {
		a.Warnf(format, args...)
	}
}

// lineCol converts a byte offset to 1-based line and column numbers.
func lineCol(text string, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}
	line = 1
	lastNL := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return line, offset - lastNL
}

// excerpt truncates matched text to a displayable length.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxExcerptLen {
		return s
	}
	return s[:maxExcerptLen] + "..."
}
