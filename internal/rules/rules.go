// Package rules holds the declarative rule catalog for code review.
// Every rule, built-in or custom, shares one capability: evaluate raw
// artifact text and return findings. Applicability metadata decides
// which rules run for a given file type; the analyzer never switches on
// language itself.
package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/joescharf/cq/internal/models"
)

// ErrInvalidRule marks a custom rule whose pattern failed to compile.
var ErrInvalidRule = errors.New("invalid rule")

// Group names a togglable family of built-in rules.
type Group string

const (
	GroupSecurity      Group = "security"
	GroupAccessibility Group = "accessibility"
	GroupPerformance   Group = "performance"
	GroupStyle         Group = "style"
	GroupCustom        Group = "custom"
)

// Finding is a single hit of a rule within artifact text.
type Finding struct {
	Offset      int
	MatchedText string
}

// Outcome declares what a rule's findings become. Severity set means
// the rule produces Issues; Category set means Suggestions.
type Outcome struct {
	Severity       models.Severity
	Category       models.SuggestionCategory
	Description    string
	Recommendation string
}

// IsIssue reports whether findings map to Issues rather than Suggestions.
func (o Outcome) IsIssue() bool { return o.Severity != "" }

// Rule is a single catalog entry. Implementations must be pure: the
// same text always yields the same findings, in the same order.
type Rule interface {
	ID() string
	AppliesTo() []string
	Group() Group
	Outcome() Outcome
	Evaluate(text string) []Finding
}

// regexRule matches a compiled regular expression against the text.
type regexRule struct {
	id        string
	appliesTo []string
	group     Group
	outcome   Outcome
	re        *regexp.Regexp
}

func (r *regexRule) ID() string          { return r.id }
func (r *regexRule) AppliesTo() []string { return r.appliesTo }
func (r *regexRule) Group() Group        { return r.group }
func (r *regexRule) Outcome() Outcome    { return r.outcome }

func (r *regexRule) Evaluate(text string) []Finding {
	locs := r.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	findings := make([]Finding, 0, len(locs))
	for _, loc := range locs {
		findings = append(findings, Finding{Offset: loc[0], MatchedText: text[loc[0]:loc[1]]})
	}
	return findings
}

// funcRule wraps a heuristic that needs more than a single regex, such
// as brace matching or sliding-window hashing.
type funcRule struct {
	id        string
	appliesTo []string
	group     Group
	outcome   Outcome
	fn        func(text string) []Finding
}

func (r *funcRule) ID() string          { return r.id }
func (r *funcRule) AppliesTo() []string { return r.appliesTo }
func (r *funcRule) Group() Group        { return r.group }
func (r *funcRule) Outcome() Outcome    { return r.outcome }

func (r *funcRule) Evaluate(text string) []Finding { return r.fn(text) }

// Compile builds a Rule from a caller-supplied spec. The pattern is
// compiled as a Go regular expression; a malformed pattern yields an
// error wrapping ErrInvalidRule so callers can skip the rule and keep
// analyzing.
func Compile(spec models.RuleSpec) (Rule, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidRule)
	}
	if spec.Severity == "" && spec.Category == "" {
		return nil, fmt.Errorf("%w: rule %s declares neither severity nor category", ErrInvalidRule, spec.ID)
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s: %v", ErrInvalidRule, spec.ID, err)
	}

	desc := spec.Description
	if desc == "" {
		desc = fmt.Sprintf("Custom rule %s matched", spec.ID)
	}
	rec := spec.Recommendation
	if rec == "" {
		rec = "Review the flagged code and address the custom rule violation."
	}

	return &regexRule{
		id:        spec.ID,
		appliesTo: spec.AppliesTo,
		group:     GroupCustom,
		outcome: Outcome{
			Severity:       spec.Severity,
			Category:       spec.Category,
			Description:    desc,
			Recommendation: rec,
		},
		re: re,
	}, nil
}
