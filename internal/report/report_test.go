package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/scan"
)

func sampleResult() *models.ReviewResult {
	return &models.ReviewResult{
		ArtifactKey: "widget.js",
		Score:       63,
		Approved:    false,
		Summary:     "needs-improvement: 1 critical, 1 medium, 2 suggestions",
		Issues: []models.Issue{
			{
				Severity:       models.SeverityMedium,
				Description:    "Image without alternative text",
				Location:       &models.Location{Line: 12},
				Recommendation: "Add an alt attribute.",
			},
			{
				Severity:       models.SeverityCritical,
				Description:    "Use of eval() with dynamic input",
				Location:       &models.Location{Line: 3},
				CodeExcerpt:    "eval(userInput)",
				Recommendation: "Never pass runtime strings to eval().",
			},
		},
		Suggestions: []models.Suggestion{
			{Category: models.CategoryStyle, Description: "Legacy var declaration", Benefit: "Use const or let."},
			{Category: models.CategoryPerformance, Description: "Nested loop detected", Benefit: "Use a lookup map."},
		},
	}
}

func TestRenderResult(t *testing.T) {
	md := RenderResult(sampleResult())

	assert.Contains(t, md, "# Code Review: widget.js")
	assert.Contains(t, md, "**Score:** 63/100")
	assert.Contains(t, md, "CHANGES REQUESTED")
	assert.Contains(t, md, "## Issues")
	assert.Contains(t, md, "## Suggestions")
	assert.Contains(t, md, "## Recommendation")

	// Critical section precedes medium regardless of input order.
	critIdx := strings.Index(md, "### CRITICAL")
	medIdx := strings.Index(md, "### MEDIUM")
	require.GreaterOrEqual(t, critIdx, 0)
	require.GreaterOrEqual(t, medIdx, 0)
	assert.Less(t, critIdx, medIdx)

	// Performance suggestions render before style.
	perfIdx := strings.Index(md, "### Performance")
	styleIdx := strings.Index(md, "### Style")
	assert.Less(t, perfIdx, styleIdx)

	assert.Contains(t, md, "(line 3)")
	assert.Contains(t, md, "`eval(userInput)`")
}

func TestRenderResult_Approved(t *testing.T) {
	r := &models.ReviewResult{
		ArtifactKey: "clean.js",
		Score:       100,
		Approved:    true,
		Summary:     "excellent: no issues, 0 suggestions",
	}
	md := RenderResult(r)

	assert.Contains(t, md, "APPROVED")
	assert.NotContains(t, md, "## Issues", "issue section omitted when empty")
	assert.NotContains(t, md, "## Suggestions")
	assert.Contains(t, md, "Great shape.")
}

func TestRenderComparison(t *testing.T) {
	c := &models.Comparison{
		ArtifactKey: "widget.js",
		OldScore:    70,
		NewScore:    85,
		ScoreDelta:  15,
		Trend:       models.TrendImproving,
		ResolvedIssues: []models.Issue{
			{Severity: models.SeverityHigh, Description: "SQL built by string concatenation"},
		},
	}
	md := RenderComparison(c)

	assert.Contains(t, md, "# Review Comparison: widget.js")
	assert.Contains(t, md, "70 → 85 (+15)")
	assert.Contains(t, md, "**Trend:** improving")
	assert.Contains(t, md, "[high] SQL built by string concatenation")
	assert.Contains(t, md, "## New Issues\n\nNone.")
}

func TestRenderAggregate(t *testing.T) {
	agg := &scan.Aggregate{
		RootPath:     "/src/app",
		OverallScore: 76,
		Results: []*models.ReviewResult{
			{ArtifactKey: "a.js", Score: 60},
			{ArtifactKey: "b.js", Score: 92},
		},
		Worst: []scan.ArtifactScore{
			{ArtifactKey: "a.js", Score: 60},
			{ArtifactKey: "b.js", Score: 92},
		},
		CriticalIssues: []models.Issue{
			{Severity: models.SeverityCritical, Description: "Hardcoded credential in source"},
			{Severity: models.SeverityCritical, Description: "Hardcoded credential in source"},
		},
		TopIssues: []scan.DescriptionCount{
			{Description: "Hardcoded credential in source", Count: 2},
		},
		Recommendations: []string{"Resolve all critical security issues before merging."},
	}
	md := RenderAggregate(agg)

	assert.Contains(t, md, "# Project Review: /src/app")
	assert.Contains(t, md, "**Overall score:** 76/100 (acceptable) across 2 artifacts")
	assert.Contains(t, md, "| a.js | 60 |")
	assert.Contains(t, md, "Hardcoded credential in source (×2)")
	assert.Contains(t, md, "## Most Frequent Issues")
	assert.Contains(t, md, "## Recommendations")
}
