package rules

import (
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/joescharf/cq/internal/models"
)

// Thresholds for the maintainability heuristics.
const (
	maxFunctionLines  = 50
	maxLineLength     = 120
	duplicateWindow   = 5
	minDuplicateChars = 20
)

var (
	funcHeadRe   = regexp.MustCompile(`(?:\bfunction\b|\bfunc\b|=>\s*\{|\b(?:public|private|protected|static)\b[^;{]*\()`)
	varDeclRe    = regexp.MustCompile(`\bvar\s+[A-Za-z_$][\w$]*\s*=`)
	debugPrintRe = regexp.MustCompile(`\b(?:console\.log|console\.debug|System\.out\.println|Console\.WriteLine|fmt\.Println)\s*\(`)
	todoRe       = regexp.MustCompile(`(?i)\b(?:TODO|FIXME|XXX|HACK)\b`)
)

// styleRules cover maintainability and style concerns: oversized
// functions, leftover debug output, legacy declarations, and
// copy-pasted blocks.
func styleRules() []Rule {
	return []Rule{
		&funcRule{
			id:        "style-oversized-function",
			appliesTo: braceLangs,
			group:     GroupStyle,
			outcome: Outcome{
				Severity:       models.SeverityMedium,
				Description:    "Function body exceeds 50 lines",
				Recommendation: "Split the function into smaller, focused helpers.",
			},
			fn: oversizedFunctions,
		},
		&regexRule{
			id:        "style-var-declaration",
			appliesTo: jsFamily,
			group:     GroupStyle,
			outcome: Outcome{
				Category:       models.CategoryStyle,
				Description:    "Legacy var declaration",
				Recommendation: "Use const, or let when reassignment is needed; var is function-scoped and hoisted.",
			},
			re: varDeclRe,
		},
		&regexRule{
			id:    "style-debug-print",
			group: GroupStyle,
			outcome: Outcome{
				Severity:       models.SeverityLow,
				Description:    "Debug print statement left in code",
				Recommendation: "Remove the debug output or route it through the project's logger.",
			},
			re: debugPrintRe,
		},
		&regexRule{
			id:    "style-todo-marker",
			group: GroupStyle,
			outcome: Outcome{
				Category:       models.CategoryMaintainability,
				Description:    "TODO/FIXME marker in code",
				Recommendation: "Track the follow-up in the issue tracker and resolve or remove the marker.",
			},
			re: todoRe,
		},
		&funcRule{
			id:    "style-long-line",
			group: GroupStyle,
			outcome: Outcome{
				Category:       models.CategoryStyle,
				Description:    "Line exceeds 120 characters",
				Recommendation: "Wrap long lines; they hurt side-by-side review and diffs.",
			},
			fn: longLines,
		},
		&funcRule{
			id:    "style-duplicate-block",
			group: GroupStyle,
			outcome: Outcome{
				Category:       models.CategoryMaintainability,
				Description:    "Duplicated code block",
				Recommendation: "Extract the repeated block into a shared function.",
			},
			fn: duplicateBlocks,
		},
	}
}

// oversizedFunctions finds function bodies longer than maxFunctionLines
// by matching the brace opened for a function header with its closing
// brace. The opening brace may trail the header line (Allman style);
// a header line ending in a semicolon with no brace is a prototype,
// not a definition, and is discarded.
func oversizedFunctions(text string) []Finding {
	type openFunc struct {
		depth     int
		offset    int
		startLine int
		header    string
	}

	var findings []Finding
	var stack []openFunc
	depth := 0
	offset := 0

	pendingHead := false
	var head openFunc

	lines := strings.SplitAfter(text, "\n")
	for lineNo, line := range lines {
		if funcHeadRe.MatchString(line) {
			pendingHead = true
			head = openFunc{offset: offset, startLine: lineNo, header: strings.TrimSpace(line)}
		}

		opened := false
		for _, ch := range line {
			switch ch {
			case '{':
				depth++
				opened = true
				if pendingHead {
					head.depth = depth
					stack = append(stack, head)
					pendingHead = false
				}
			case '}':
				if len(stack) > 0 && stack[len(stack)-1].depth == depth {
					f := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					if lineNo-f.startLine+1 > maxFunctionLines {
						findings = append(findings, Finding{Offset: f.offset, MatchedText: f.header})
					}
				}
				depth--
			}
		}
		if pendingHead && !opened && strings.Contains(line, ";") {
			pendingHead = false
		}
		offset += len(line)
	}
	return findings
}

// longLines flags every line longer than maxLineLength characters.
func longLines(text string) []Finding {
	var findings []Finding
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimRight(line, "\n")
		if len(trimmed) > maxLineLength {
			findings = append(findings, Finding{Offset: offset, MatchedText: trimmed[:maxLineLength] + "…"})
		}
		offset += len(line)
	}
	return findings
}

// duplicateBlocks detects repeated blocks of duplicateWindow lines via
// sliding-window hashing. Lines are whitespace-normalized before
// hashing so indentation changes do not mask a copy-paste. Only the
// second and later occurrences are reported; trivial windows (blank or
// nearly blank) are skipped.
func duplicateBlocks(text string) []Finding {
	raw := strings.Split(text, "\n")
	if len(raw) < duplicateWindow*2 {
		return nil
	}

	normalized := make([]string, len(raw))
	offsets := make([]int, len(raw))
	pos := 0
	for i, line := range raw {
		offsets[i] = pos
		pos += len(line) + 1
		normalized[i] = strings.Join(strings.Fields(line), " ")
	}

	seen := make(map[uint64]int) // window hash -> first start line
	reported := make(map[int]bool)
	var findings []Finding

	for i := 0; i+duplicateWindow <= len(normalized); i++ {
		window := strings.Join(normalized[i:i+duplicateWindow], "\n")
		if len(strings.TrimSpace(window)) < minDuplicateChars {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(window))
		sum := h.Sum64()

		first, ok := seen[sum]
		if !ok {
			seen[sum] = i
			continue
		}
		// Overlapping windows of one long repeat collapse to one report.
		if first+duplicateWindow > i || reported[i] {
			continue
		}
		reported[i] = true
		findings = append(findings, Finding{
			Offset:      offsets[i],
			MatchedText: strings.TrimSpace(raw[i]),
		})
	}
	return findings
}
