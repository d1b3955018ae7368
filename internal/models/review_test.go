package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("bogus").Rank(), SeverityLow.Rank())
}

func TestCountBySeverity(t *testing.T) {
	r := &ReviewResult{Issues: []Issue{
		{Severity: SeverityCritical},
		{Severity: SeverityLow},
		{Severity: SeverityLow},
	}}

	assert.Equal(t, 1, r.CountBySeverity(SeverityCritical))
	assert.Equal(t, 2, r.CountBySeverity(SeverityLow))
	assert.Equal(t, 0, r.CountBySeverity(SeverityHigh))
}

func TestCriticalIssues(t *testing.T) {
	r := &ReviewResult{Issues: []Issue{
		{Severity: SeverityCritical, Description: "a"},
		{Severity: SeverityMedium, Description: "b"},
		{Severity: SeverityCritical, Description: "c"},
	}}

	crit := r.CriticalIssues()
	assert.Len(t, crit, 2)
	assert.Equal(t, "a", crit[0].Description)
	assert.Equal(t, "c", crit[1].Description)

	assert.Empty(t, (&ReviewResult{}).CriticalIssues())
}

func TestCriticalIssuesAreDeepCopies(t *testing.T) {
	r := &ReviewResult{Issues: []Issue{
		{Severity: SeverityCritical, Description: "a", Location: &Location{Line: 3}},
	}}

	crit := r.CriticalIssues()
	crit[0].Location.Line = 42

	assert.Equal(t, 3, r.Issues[0].Location.Line)
}

func TestIssueClone(t *testing.T) {
	orig := Issue{Severity: SeverityHigh, Description: "d", Location: &Location{Line: 7, Column: 2}}

	c := orig.Clone()
	assert.Equal(t, orig, c)
	c.Location.Line = 99
	assert.Equal(t, 7, orig.Location.Line)

	assert.Nil(t, Issue{}.Clone().Location)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.CheckSecurity)
	assert.True(t, opts.CheckAccessibility)
	assert.True(t, opts.CheckPerformance)
	assert.False(t, opts.StrictMode)
	assert.Equal(t, DefaultApprovalThreshold, opts.ApprovalThreshold)
	assert.Equal(t, DefaultMaxHistory, opts.MaxHistoryPerArtifact)
}
