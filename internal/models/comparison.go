package models

// Trend classifies the score direction between two chronologically
// ordered results of the same artifact.
type Trend string

const (
	TrendImproving     Trend = "improving"
	TrendDeteriorating Trend = "deteriorating"
	TrendStable        Trend = "stable"
)

// Comparison is the derived diff between two ReviewResults. It is never
// persisted; recompute it from history entries as needed.
type Comparison struct {
	ArtifactKey            string       `json:"artifact_key"`
	OldScore               int          `json:"old_score"`
	NewScore               int          `json:"new_score"`
	ScoreDelta             int          `json:"score_delta"`
	Trend                  Trend        `json:"trend"`
	ResolvedIssues         []Issue      `json:"resolved_issues"`
	NewIssues              []Issue      `json:"new_issues"`
	ImplementedSuggestions []Suggestion `json:"implemented_suggestions"`
	NewSuggestions         []Suggestion `json:"new_suggestions"`
}
