package rules

import (
	"regexp"
	"strings"

	"github.com/joescharf/cq/internal/models"
)

var (
	loopHeadRe     = regexp.MustCompile(`\b(?:for|while)\b\s*[({]?`)
	domQueryRe     = regexp.MustCompile(`\bdocument\.(?:querySelector(?:All)?|getElementById|getElementsBy\w+)\s*\(`)
	appendConcatRe = regexp.MustCompile(`\+=\s*`)
	setIntervalRe  = regexp.MustCompile(`\bsetInterval\s*\(`)
	addListenerRe  = regexp.MustCompile(`\baddEventListener\s*\(`)
)

// performanceRules detect work that should move out of hot paths. All
// outcomes are suggestions: they lower the score but never veto
// approval.
func performanceRules() []Rule {
	return []Rule{
		&funcRule{
			id:        "perf-nested-loop",
			appliesTo: braceLangs,
			group:     GroupPerformance,
			outcome: Outcome{
				Category:       models.CategoryPerformance,
				Description:    "Nested loop detected",
				Recommendation: "Consider replacing the inner loop with a lookup map or precomputed index to avoid quadratic passes.",
			},
			fn: matchesInsideLoop(loopHeadRe),
		},
		&funcRule{
			id:        "perf-dom-query-in-loop",
			appliesTo: jsFamily,
			group:     GroupPerformance,
			outcome: Outcome{
				Category:       models.CategoryPerformance,
				Description:    "DOM query inside a loop",
				Recommendation: "Query the element once before the loop and reuse the reference.",
			},
			fn: matchesInsideLoop(domQueryRe),
		},
		&funcRule{
			id:        "perf-string-concat-in-loop",
			appliesTo: []string{"java", "cs"},
			group:     GroupPerformance,
			outcome: Outcome{
				Category:       models.CategoryPerformance,
				Description:    "String concatenation inside a loop",
				Recommendation: "Accumulate with StringBuilder instead of += to avoid repeated reallocation.",
			},
			fn: matchesInsideLoop(appendConcatRe),
		},
		&funcRule{
			id:        "perf-uncleared-interval",
			appliesTo: jsFamily,
			group:     GroupPerformance,
			outcome: Outcome{
				Category:       models.CategoryPerformance,
				Description:    "setInterval without matching clearInterval",
				Recommendation: "Store the interval handle and clear it on teardown to avoid leaking timers.",
			},
			fn: missingCounterpart(setIntervalRe, "clearInterval"),
		},
		&funcRule{
			id:        "perf-unremoved-listener",
			appliesTo: jsFamily,
			group:     GroupPerformance,
			outcome: Outcome{
				Category:       models.CategoryPerformance,
				Description:    "addEventListener without matching removeEventListener",
				Recommendation: "Remove listeners when the component unmounts or the element is discarded.",
			},
			fn: missingCounterpart(addListenerRe, "removeEventListener"),
		},
	}
}

// matchesInsideLoop returns an evaluator that flags lines matching re
// while inside a loop body. Loop bodies are tracked by brace depth:
// a loop header opens a body at the depth of its opening brace, and the
// body closes when depth drops back below it. The header's brace may
// sit on the header line or on a following line (Allman style); a
// header stays pending until its brace arrives. Braces inside strings
// or comments are not special-cased; this is a heuristic over raw
// text, not a parse.
func matchesInsideLoop(re *regexp.Regexp) func(string) []Finding {
	return func(text string) []Finding {
		var findings []Finding
		depth := 0
		var loopStack []int
		offset := 0
		pendingLoop := false

		for _, line := range strings.SplitAfter(text, "\n") {
			carried := pendingLoop
			if loopHeadRe.MatchString(line) {
				pendingLoop = true
			}
			inLoop := len(loopStack) > 0

			if inLoop {
				if loc := re.FindStringIndex(line); loc != nil {
					findings = append(findings, Finding{
						Offset:      offset + loc[0],
						MatchedText: strings.TrimSpace(line),
					})
				}
			}

			opened := false
			for _, ch := range line {
				switch ch {
				case '{':
					depth++
					opened = true
					if pendingLoop {
						loopStack = append(loopStack, depth)
						pendingLoop = false
					}
				case '}':
					if len(loopStack) > 0 && loopStack[len(loopStack)-1] == depth {
						loopStack = loopStack[:len(loopStack)-1]
					}
					depth--
				}
			}
			// A braceless loop runs a single statement. Once that
			// statement is past, the carried header must not attach to
			// a later unrelated block. The header line itself is
			// exempt: a for header legitimately contains semicolons.
			if pendingLoop && carried && !opened && strings.Contains(line, ";") {
				pendingLoop = false
			}
			offset += len(line)
		}
		return findings
	}
}

// missingCounterpart flags every match of re when the counterpart call
// never appears anywhere in the text.
func missingCounterpart(re *regexp.Regexp, counterpart string) func(string) []Finding {
	return func(text string) []Finding {
		if strings.Contains(text, counterpart) {
			return nil
		}
		var findings []Finding
		for _, loc := range re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{Offset: loc[0], MatchedText: text[loc[0]:loc[1]]})
		}
		return findings
	}
}
