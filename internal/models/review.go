package models

import "time"

// Severity ranks how badly an issue blocks approval.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank returns a sort key for severities, critical first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// SuggestionCategory classifies a non-blocking improvement.
type SuggestionCategory string

const (
	CategoryPerformance     SuggestionCategory = "performance"
	CategorySecurity        SuggestionCategory = "security"
	CategoryAccessibility   SuggestionCategory = "accessibility"
	CategoryMaintainability SuggestionCategory = "maintainability"
	CategoryStyle           SuggestionCategory = "style"
)

// Location is an optional line/column position within an artifact.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column,omitempty"`
}

// Issue is a defect finding. Description doubles as the issue's identity
// when diffing two results of the same artifact, so it must be stable
// across runs of unchanged text.
type Issue struct {
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Location       *Location `json:"location,omitempty"`
	CodeExcerpt    string    `json:"code_excerpt,omitempty"`
	Recommendation string    `json:"recommendation"`
}

// Clone returns a copy of the issue that shares no memory with the
// original. Location is the only pointer field.
func (i Issue) Clone() Issue {
	if i.Location != nil {
		loc := *i.Location
		i.Location = &loc
	}
	return i
}

// Suggestion is a non-blocking improvement. It never flips the approval
// verdict, only the numeric score.
type Suggestion struct {
	Category    SuggestionCategory `json:"category"`
	Description string             `json:"description"`
	Benefit     string             `json:"benefit"`
	BeforeCode  string             `json:"before_code,omitempty"`
	AfterCode   string             `json:"after_code,omitempty"`
}

// ReviewResult is the immutable output of one analyze+score run over one
// artifact. It is created once and never mutated afterward.
type ReviewResult struct {
	ID          string       `json:"id"`
	ArtifactKey string       `json:"artifact_key"`
	Issues      []Issue      `json:"issues"`
	Suggestions []Suggestion `json:"suggestions"`
	Score       int          `json:"score"`
	Approved    bool         `json:"approved"`
	Summary     string       `json:"summary"`
	Timestamp   time.Time    `json:"timestamp"`
}

// CountBySeverity returns how many issues carry the given severity.
func (r *ReviewResult) CountBySeverity(s Severity) int {
	n := 0
	for _, iss := range r.Issues {
		if iss.Severity == s {
			n++
		}
	}
	return n
}

// CriticalIssues returns the result's critical issues as deep copies,
// safe for callers to mutate without touching the result.
func (r *ReviewResult) CriticalIssues() []Issue {
	var out []Issue
	for _, iss := range r.Issues {
		if iss.Severity == SeverityCritical {
			out = append(out, iss.Clone())
		}
	}
	return out
}
