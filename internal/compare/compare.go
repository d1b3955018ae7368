// Package compare diffs two review results of the same artifact by
// description identity and classifies the trend.
package compare

import "github.com/joescharf/cq/internal/models"

// Compare diffs old against new. Issues and suggestions are matched by
// description: present in old but not new means resolved/implemented,
// the inverse means new. A zero score delta is always stable; it is
// never rounded into either direction.
func Compare(old, new *models.ReviewResult) models.Comparison {
	c := models.Comparison{
		ArtifactKey: new.ArtifactKey,
		OldScore:    old.Score,
		NewScore:    new.Score,
		ScoreDelta:  new.Score - old.Score,
	}

	switch {
	case c.ScoreDelta > 0:
		c.Trend = models.TrendImproving
	case c.ScoreDelta < 0:
		c.Trend = models.TrendDeteriorating
	default:
		c.Trend = models.TrendStable
	}

	oldIssues := issueSet(old.Issues)
	newIssues := issueSet(new.Issues)
	for _, iss := range old.Issues {
		if !newIssues[iss.Description] {
			c.ResolvedIssues = append(c.ResolvedIssues, iss)
		}
	}
	for _, iss := range new.Issues {
		if !oldIssues[iss.Description] {
			c.NewIssues = append(c.NewIssues, iss)
		}
	}

	oldSugg := suggestionSet(old.Suggestions)
	newSugg := suggestionSet(new.Suggestions)
	for _, s := range old.Suggestions {
		if !newSugg[s.Description] {
			c.ImplementedSuggestions = append(c.ImplementedSuggestions, s)
		}
	}
	for _, s := range new.Suggestions {
		if !oldSugg[s.Description] {
			c.NewSuggestions = append(c.NewSuggestions, s)
		}
	}

	return c
}

func issueSet(issues []models.Issue) map[string]bool {
	set := make(map[string]bool, len(issues))
	for _, iss := range issues {
		set[iss.Description] = true
	}
	return set
}

func suggestionSet(suggestions []models.Suggestion) map[string]bool {
	set := make(map[string]bool, len(suggestions))
	for _, s := range suggestions {
		set[s.Description] = true
	}
	return set
}
