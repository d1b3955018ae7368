package models

// RuleSpec describes a custom rule supplied by the caller. Pattern is a
// regular expression evaluated against the artifact text. Exactly one of
// Severity or Category should be set: Severity makes matches Issues,
// Category makes them Suggestions.
type RuleSpec struct {
	ID             string             `json:"id" yaml:"id"`
	AppliesTo      []string           `json:"applies_to,omitempty" yaml:"applies_to,omitempty"`
	Pattern        string             `json:"pattern" yaml:"pattern"`
	Severity       Severity           `json:"severity,omitempty" yaml:"severity,omitempty"`
	Category       SuggestionCategory `json:"category,omitempty" yaml:"category,omitempty"`
	Description    string             `json:"description" yaml:"description"`
	Recommendation string             `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

// Options control a single review invocation. The zero value is not
// useful; start from DefaultOptions.
type Options struct {
	StrictMode            bool       `json:"strict_mode"`
	CheckSecurity         bool       `json:"check_security"`
	CheckAccessibility    bool       `json:"check_accessibility"`
	CheckPerformance      bool       `json:"check_performance"`
	IgnorePatterns        []string   `json:"ignore_patterns,omitempty"`
	CustomRules           []RuleSpec `json:"custom_rules,omitempty"`
	ApprovalThreshold     int        `json:"approval_threshold"`
	MaxHistoryPerArtifact int        `json:"max_history_per_artifact"`
}

// DefaultApprovalThreshold is the minimum score for approval.
const DefaultApprovalThreshold = 70

// DefaultMaxHistory is the per-artifact history cap.
const DefaultMaxHistory = 10

// DefaultOptions returns the documented defaults: all rule groups on,
// non-strict, threshold 70, history capped at 10.
func DefaultOptions() Options {
	return Options{
		CheckSecurity:         true,
		CheckAccessibility:    true,
		CheckPerformance:      true,
		ApprovalThreshold:     DefaultApprovalThreshold,
		MaxHistoryPerArtifact: DefaultMaxHistory,
	}
}
