package rules

import (
	"regexp"
	"strings"

	"github.com/joescharf/cq/internal/models"
)

var (
	imgTagRe   = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	inputTagRe = regexp.MustCompile(`(?is)<input\b[^>]*>`)
	roleAttrRe = regexp.MustCompile(`(?is)<[a-z][a-z0-9]*\b[^>]*\brole\s*=[^>]*>`)
	clickRe    = regexp.MustCompile(`(?i)<(?:div|span)\b[^>]*\bonclick\s*=`)
)

// accessibilityRules flags markup that screen readers cannot interpret.
// RE2 has no lookahead, so "tag missing attribute" checks scan each tag
// match and inspect its attributes directly.
func accessibilityRules() []Rule {
	return []Rule{
		&funcRule{
			id:        "a11y-img-alt",
			appliesTo: markup,
			group:     GroupAccessibility,
			outcome: Outcome{
				Severity:       models.SeverityMedium,
				Description:    "Image without alternative text",
				Recommendation: "Add an alt attribute describing the image, or alt=\"\" for purely decorative images.",
			},
			fn: tagsMissingAttr(imgTagRe, "alt"),
		},
		&funcRule{
			id:        "a11y-input-label",
			appliesTo: markup,
			group:     GroupAccessibility,
			outcome: Outcome{
				Severity:       models.SeverityMedium,
				Description:    "Form input without label association",
				Recommendation: "Associate the input with a <label for=...>, or add aria-label/aria-labelledby.",
			},
			fn: tagsMissingAttr(inputTagRe, "id", "aria-label", "aria-labelledby"),
		},
		&funcRule{
			id:        "a11y-role-label",
			appliesTo: markup,
			group:     GroupAccessibility,
			outcome: Outcome{
				Severity:       models.SeverityLow,
				Description:    "ARIA role without accessible name",
				Recommendation: "Elements with an explicit role need aria-label or aria-labelledby so assistive tech can announce them.",
			},
			fn: tagsMissingAttr(roleAttrRe, "aria-label", "aria-labelledby"),
		},
		&regexRule{
			id:        "a11y-click-noninteractive",
			appliesTo: markup,
			group:     GroupAccessibility,
			outcome: Outcome{
				Category:       models.CategoryAccessibility,
				Description:    "Click handler on non-interactive element",
				Recommendation: "Use a <button> or <a>, or add role, tabindex, and keyboard handling to the element.",
			},
			re: clickRe,
		},
	}
}

// tagsMissingAttr returns an evaluator that finds tag matches lacking
// every one of the given attributes.
func tagsMissingAttr(tagRe *regexp.Regexp, attrs ...string) func(string) []Finding {
	return func(text string) []Finding {
		var findings []Finding
		for _, loc := range tagRe.FindAllStringIndex(text, -1) {
			tag := text[loc[0]:loc[1]]
			lower := strings.ToLower(tag)
			if hasAnyAttr(lower, attrs) {
				continue
			}
			findings = append(findings, Finding{Offset: loc[0], MatchedText: tag})
		}
		return findings
	}
}

func hasAnyAttr(lowerTag string, attrs []string) bool {
	for _, a := range attrs {
		if strings.Contains(lowerTag, a+"=") || strings.Contains(lowerTag, a+" ") ||
			strings.HasSuffix(lowerTag, a+">") || strings.HasSuffix(lowerTag, a+"/>") {
			return true
		}
	}
	return false
}
