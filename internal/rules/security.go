package rules

import (
	"regexp"

	"github.com/joescharf/cq/internal/models"
)

// File-type tag groups shared by the built-in rules.
var (
	jsFamily   = []string{"js", "jsx", "ts", "tsx"}
	jsAndHTML  = []string{"js", "jsx", "ts", "tsx", "html"}
	markup     = []string{"html", "jsx", "tsx"}
	braceLangs = []string{"js", "jsx", "ts", "tsx", "java", "cs", "go", "php"}
)

var (
	evalRe       = regexp.MustCompile(`\beval\s*\(`)
	newFuncRe    = regexp.MustCompile(`\bnew\s+Function\s*\(`)
	innerHTMLRe  = regexp.MustCompile(`\.innerHTML\s*=`)
	docWriteRe   = regexp.MustCompile(`\bdocument\.write\s*\(`)
	credentialRe = regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\b\s*[:=]\s*["'][^"']{4,}["']`)
	sqlConcatRe  = regexp.MustCompile(`(?i)["'](?:select|insert|update|delete)\b[^"'\n]*["']\s*\+`)
	osSystemRe   = regexp.MustCompile(`\b(?:os\.system|subprocess\.call|subprocess\.Popen)\s*\(`)
)

// securityRules flags unsafe dynamic execution, injection sinks, and
// leaked credentials.
func securityRules() []Rule {
	return []Rule{
		&regexRule{
			id:    "sec-unsafe-eval",
			group: GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityCritical,
				Description:    "Use of eval() with dynamic input",
				Recommendation: "Never pass runtime-constructed strings to eval(). Parse the input explicitly or use a safe dispatch table.",
			},
			re: evalRe,
		},
		&regexRule{
			id:        "sec-new-function",
			appliesTo: jsFamily,
			group:     GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityCritical,
				Description:    "Dynamic code construction via new Function()",
				Recommendation: "Replace new Function() with a statically defined function; dynamic construction executes arbitrary strings.",
			},
			re: newFuncRe,
		},
		&regexRule{
			id:        "sec-inner-html",
			appliesTo: jsAndHTML,
			group:     GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityHigh,
				Description:    "Direct innerHTML assignment (XSS sink)",
				Recommendation: "Use textContent, or sanitize the markup before assignment.",
			},
			re: innerHTMLRe,
		},
		&regexRule{
			id:        "sec-document-write",
			appliesTo: jsAndHTML,
			group:     GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityMedium,
				Description:    "document.write() usage",
				Recommendation: "Build DOM nodes explicitly; document.write re-parses the page and is an injection vector.",
			},
			re: docWriteRe,
		},
		&regexRule{
			id:    "sec-hardcoded-credential",
			group: GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityCritical,
				Description:    "Hardcoded credential in source",
				Recommendation: "Move secrets out of source: read them from the environment or a secret manager.",
			},
			re: credentialRe,
		},
		&regexRule{
			id:    "sec-sql-concat",
			group: GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityHigh,
				Description:    "SQL built by string concatenation",
				Recommendation: "Use parameterized queries or a query builder instead of concatenating user input into SQL.",
			},
			re: sqlConcatRe,
		},
		&regexRule{
			id:        "sec-shell-exec",
			appliesTo: []string{"py"},
			group:     GroupSecurity,
			outcome: Outcome{
				Severity:       models.SeverityHigh,
				Description:    "Shell execution from Python code",
				Recommendation: "Prefer subprocess.run with an argument list and shell=False; never interpolate input into a shell string.",
			},
			re: osSystemRe,
		},
	}
}
