// Package report renders review data as Markdown documents. Rendering
// is pure formatting over already-computed data; nothing here re-runs
// analysis.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/scan"
	"github.com/joescharf/cq/internal/scorer"
)

// severityOrder lists severities critical first for grouped sections.
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
}

// categoryOrder fixes the suggestion section order.
var categoryOrder = []models.SuggestionCategory{
	models.CategorySecurity,
	models.CategoryPerformance,
	models.CategoryAccessibility,
	models.CategoryMaintainability,
	models.CategoryStyle,
}

// closingByBand keys the closing recommendation off the score band.
var closingByBand = map[string]string{
	"excellent":         "Great shape. Keep the bar where it is.",
	"acceptable":        "Solid overall. Work through the suggestions when convenient.",
	"needs-improvement": "Address the listed issues before the next release.",
	"problematic":       "Significant rework needed. Start with the critical and high severity issues.",
}

// RenderResult renders a single review as a Markdown document:
// header and verdict, issues grouped by severity (critical first),
// suggestions grouped by category, and a closing recommendation keyed
// off the score band.
func RenderResult(r *models.ReviewResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Code Review: %s\n\n", r.ArtifactKey)
	fmt.Fprintf(&b, "**Score:** %d/100 · **Status:** %s\n\n", r.Score, verdict(r.Approved))
	fmt.Fprintf(&b, "%s\n", r.Summary)

	if len(r.Issues) > 0 {
		b.WriteString("\n## Issues\n")
		for _, sev := range severityOrder {
			var group []models.Issue
			for _, iss := range r.Issues {
				if iss.Severity == sev {
					group = append(group, iss)
				}
			}
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n### %s\n\n", strings.ToUpper(string(sev)))
			for _, iss := range group {
				writeIssue(&b, iss)
			}
		}
	}

	if len(r.Suggestions) > 0 {
		b.WriteString("\n## Suggestions\n")
		for _, cat := range categoryOrder {
			var group []models.Suggestion
			for _, s := range r.Suggestions {
				if s.Category == cat {
					group = append(group, s)
				}
			}
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n### %s\n\n", titleCase(string(cat)))
			for _, s := range group {
				fmt.Fprintf(&b, "- %s — %s\n", s.Description, s.Benefit)
			}
		}
	}

	fmt.Fprintf(&b, "\n## Recommendation\n\n%s\n", closingByBand[scorer.Band(r.Score)])
	return b.String()
}

func writeIssue(b *strings.Builder, iss models.Issue) {
	loc := ""
	if iss.Location != nil {
		loc = fmt.Sprintf(" (line %d)", iss.Location.Line)
	}
	fmt.Fprintf(b, "- **%s**%s\n", iss.Description, loc)
	if iss.CodeExcerpt != "" {
		fmt.Fprintf(b, "  - `%s`\n", iss.CodeExcerpt)
	}
	fmt.Fprintf(b, "  - Fix: %s\n", iss.Recommendation)
}

// RenderComparison renders the diff between two runs of an artifact.
func RenderComparison(c *models.Comparison) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review Comparison: %s\n\n", c.ArtifactKey)
	fmt.Fprintf(&b, "**Score:** %d → %d (%+d) · **Trend:** %s\n", c.OldScore, c.NewScore, c.ScoreDelta, c.Trend)

	writeDiffSection(&b, "Resolved Issues", issueLines(c.ResolvedIssues))
	writeDiffSection(&b, "New Issues", issueLines(c.NewIssues))
	writeDiffSection(&b, "Implemented Suggestions", suggestionLines(c.ImplementedSuggestions))
	writeDiffSection(&b, "New Suggestions", suggestionLines(c.NewSuggestions))
	return b.String()
}

func writeDiffSection(b *strings.Builder, title string, lines []string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
	if len(lines) == 0 {
		b.WriteString("None.\n")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
}

func issueLines(issues []models.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, iss := range issues {
		out = append(out, fmt.Sprintf("[%s] %s", iss.Severity, iss.Description))
	}
	return out
}

func suggestionLines(suggestions []models.Suggestion) []string {
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, fmt.Sprintf("[%s] %s", s.Category, s.Description))
	}
	return out
}

// RenderAggregate renders the project-wide scan outcome.
func RenderAggregate(agg *scan.Aggregate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Project Review: %s\n\n", agg.RootPath)
	fmt.Fprintf(&b, "**Overall score:** %d/100 (%s) across %d artifacts\n", agg.OverallScore, scorer.Band(agg.OverallScore), len(agg.Results))

	if len(agg.Worst) > 0 {
		b.WriteString("\n## Lowest-Scoring Artifacts\n\n")
		b.WriteString("| Artifact | Score |\n|----------|-------|\n")
		for _, w := range agg.Worst {
			fmt.Fprintf(&b, "| %s | %d |\n", w.ArtifactKey, w.Score)
		}
	}

	if len(agg.CriticalIssues) > 0 {
		b.WriteString("\n## Critical Issues\n\n")
		seen := make(map[string]int)
		var order []string
		for _, iss := range agg.CriticalIssues {
			if seen[iss.Description] == 0 {
				order = append(order, iss.Description)
			}
			seen[iss.Description]++
		}
		sort.Strings(order)
		for _, desc := range order {
			fmt.Fprintf(&b, "- %s (×%d)\n", desc, seen[desc])
		}
	}

	if len(agg.TopIssues) > 0 {
		b.WriteString("\n## Most Frequent Issues\n\n")
		for _, dc := range agg.TopIssues {
			fmt.Fprintf(&b, "- %s — %d artifacts\n", dc.Description, dc.Count)
		}
	}

	if len(agg.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, rec := range agg.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}
	return b.String()
}

// titleCase uppercases the first letter of an ASCII category name.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func verdict(approved bool) string {
	if approved {
		return "APPROVED"
	}
	return "CHANGES REQUESTED"
}
