package analyzer

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/rules"
)

func newTestAnalyzer() *Analyzer {
	return New(rules.NewCatalog())
}

func TestAnalyze_CriticalEval(t *testing.T) {
	a := newTestAnalyzer()

	issues, _ := a.Analyze(`const result = eval(userInput);`, "handler.js", models.DefaultOptions())
	require.Len(t, issues, 1)

	iss := issues[0]
	assert.Equal(t, models.SeverityCritical, iss.Severity)
	assert.Equal(t, "Use of eval() with dynamic input", iss.Description)
	require.NotNil(t, iss.Location)
	assert.Equal(t, 1, iss.Location.Line)
	assert.NotEmpty(t, iss.Recommendation)
}

func TestAnalyze_CleanInput(t *testing.T) {
	a := newTestAnalyzer()

	issues, suggestions := a.Analyze("const total = items.reduce((a, b) => a + b, 0);\n", "sum.js", models.DefaultOptions())
	assert.Empty(t, issues)
	assert.Empty(t, suggestions)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := newTestAnalyzer()

	issues, suggestions := a.Analyze("", "empty.js", models.DefaultOptions())
	assert.Nil(t, issues)
	assert.Nil(t, suggestions)

	issues, suggestions = a.Analyze("   \n\t\n", "blank.js", models.DefaultOptions())
	assert.Nil(t, issues, "whitespace-only input counts as empty")
	assert.Nil(t, suggestions)
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := newTestAnalyzer()
	text := `var x = 1;
eval(x);
console.log(x);
for (const a of xs) {
  for (const b of ys) {
    use(a, b);
  }
}
`
	first, firstSugg := a.Analyze(text, "messy.js", models.DefaultOptions())
	for i := 0; i < 5; i++ {
		issues, suggestions := a.Analyze(text, "messy.js", models.DefaultOptions())
		assert.Equal(t, first, issues)
		assert.Equal(t, firstSugg, suggestions)
	}
}

func TestAnalyze_DedupesByDescription(t *testing.T) {
	a := newTestAnalyzer()

	// Two eval calls yield one issue; the first match supplies location.
	issues, _ := a.Analyze("eval(a);\neval(b);\n", "double.js", models.DefaultOptions())
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Location.Line)
}

func TestAnalyze_GroupGating(t *testing.T) {
	a := newTestAnalyzer()
	text := `eval(payload);`

	opts := models.DefaultOptions()
	issues, _ := a.Analyze(text, "gated.js", opts)
	assert.NotEmpty(t, issues)

	opts.CheckSecurity = false
	issues, _ = a.Analyze(text, "gated.js", opts)
	assert.Empty(t, issues, "security group disabled")
}

func TestAnalyze_PerformanceGating(t *testing.T) {
	a := newTestAnalyzer()
	text := `for (let i = 0; i < n; i++) {
  document.getElementById("x").append(i);
}
`
	opts := models.DefaultOptions()
	_, suggestions := a.Analyze(text, "loop.js", opts)
	assert.NotEmpty(t, suggestions)

	opts.CheckPerformance = false
	_, suggestions = a.Analyze(text, "loop.js", opts)
	assert.Empty(t, suggestions)
}

func TestAnalyze_IgnorePatterns(t *testing.T) {
	a := newTestAnalyzer()
	text := `eval(payload);
console.log(payload);
`
	opts := models.DefaultOptions()
	opts.IgnorePatterns = []string{"sec-*"}

	issues, _ := a.Analyze(text, "partial.js", opts)
	require.Len(t, issues, 1, "security rules globbed out, style rule remains")
	assert.Equal(t, models.SeverityLow, issues[0].Severity)

	opts.IgnorePatterns = []string{"sec-unsafe-eval", "style-debug-print"}
	issues, _ = a.Analyze(text, "partial.js", opts)
	assert.Empty(t, issues, "exact IDs also match")
}

func TestAnalyze_CustomRule(t *testing.T) {
	a := newTestAnalyzer()

	opts := models.DefaultOptions()
	opts.CustomRules = []models.RuleSpec{{
		ID:          "no-legacy-api",
		Pattern:     `\blegacyFetch\s*\(`,
		Severity:    models.SeverityHigh,
		Description: "Call to deprecated legacyFetch",
		AppliesTo:   []string{"js"},
	}}

	issues, _ := a.Analyze("legacyFetch('/users');\n", "client.js", opts)
	require.Len(t, issues, 1)
	assert.Equal(t, "Call to deprecated legacyFetch", issues[0].Description)

	// Same rule does not fire for an out-of-scope file type.
	issues, _ = a.Analyze("legacyFetch('/users')\n", "client.py", opts)
	assert.Empty(t, issues)
}

func TestAnalyze_InvalidCustomRuleSkipped(t *testing.T) {
	a := newTestAnalyzer()

	var mu sync.Mutex
	var warnings []string
	a.Warnf = func(format string, args ...any) {
		mu.Lock()
		warnings = append(warnings, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	opts := models.DefaultOptions()
	opts.CustomRules = []models.RuleSpec{
		{ID: "broken", Pattern: `([`, Severity: models.SeverityHigh},
		{ID: "working", Pattern: `\bmagicNumber\b`, Severity: models.SeverityLow, Description: "Magic number name"},
	}

	issues, _ := a.Analyze("const magicNumber = 42;\n", "nums.js", opts)
	require.Len(t, issues, 1, "valid rule still runs after the broken one is skipped")
	assert.Equal(t, "Magic number name", issues[0].Description)

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "broken")
}

func TestAnalyze_ExcerptTruncated(t *testing.T) {
	a := newTestAnalyzer()

	opts := models.DefaultOptions()
	opts.CustomRules = []models.RuleSpec{{
		ID:          "whole-line",
		Pattern:     `payload.*`,
		Severity:    models.SeverityLow,
		Description: "Payload handling",
	}}

	long := "payload = " + strings.Repeat("x", 200) + "\n"
	issues, _ := a.Analyze(long, "big.js", opts)
	require.Len(t, issues, 1)
	assert.LessOrEqual(t, len(issues[0].CodeExcerpt), maxExcerptLen+3)
}

// --- File type detection ---

func TestDetectFileType_ByExtension(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"app.js", "js"},
		{"app.mjs", "js"},
		{"component.tsx", "tsx"},
		{"index.HTML", "html"},
		{"tool.py", "py"},
		{"Main.java", "java"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DetectFileType(tc.key, ""), tc.key)
	}
}

func TestDetectFileType_SniffsContent(t *testing.T) {
	assert.Equal(t, "html", DetectFileType("snippet", "<!DOCTYPE html><html></html>"))
	assert.Equal(t, "jsx", DetectFileType("snippet", "import React from 'react';\n"))
	assert.Equal(t, "go", DetectFileType("snippet", "package main\n\nfunc main() {}\n"))
	assert.Equal(t, "py", DetectFileType("snippet", "def main():\n    pass\n"))
	assert.Equal(t, "js", DetectFileType("snippet", "const x = () => 1;\n"))
	assert.Equal(t, "", DetectFileType("snippet", "just some prose"))
}

func TestKnownExtension(t *testing.T) {
	assert.True(t, KnownExtension("src/app.ts"))
	assert.True(t, KnownExtension("page.htm"))
	assert.False(t, KnownExtension("image.png"))
	assert.False(t, KnownExtension("README"))
}
