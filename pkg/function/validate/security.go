package validate

import (
	"fmt"
	"regexp"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/script"
)

// securityPattern is a denylisted construct. Patterns run over the body with
// comments and string contents blanked unless raw is set. The first
// capturing group marks the reported token.
type securityPattern struct {
	construct  string
	re         *regexp.Regexp
	raw        bool
	message    string
	suggestion string
}

// free matches name as a free identifier (not a property access).
func free(name string) string {
	return `(?:^|[^.\w$])(` + name + `)\b`
}

var securityPatterns = []securityPattern{
	{
		construct:  "eval",
		re:         regexp.MustCompile(free(`eval`)),
		message:    "use of eval() is not permitted",
		suggestion: "Compute the value directly instead of evaluating code strings",
	},
	{
		construct:  "Function",
		re:         regexp.MustCompile(`(?:^|[^.\w$])((?:new\s+)?Function)\s*\(`),
		message:    "constructing functions from strings is not permitted",
		suggestion: "Use an arrow function or a function expression",
	},
	{
		construct:  "timer",
		re:         regexp.MustCompile(`(?:^|[^.\w$])((?:setTimeout|setInterval)\s*\(\s*["'` + "`" + `])`),
		message:    "passing a code string to setTimeout/setInterval is not permitted",
		suggestion: "Pass a function instead of a string",
	},
	{
		construct:  "require",
		re:         regexp.MustCompile(`(?:^|[^.\w$])(require)\s*\(`),
		message:    "loading modules with require() is not permitted",
		suggestion: "Use the injected notes, console and utils capabilities",
	},
	{
		construct:  "import",
		re:         regexp.MustCompile(free(`import`)),
		message:    "importing modules is not permitted",
		suggestion: "Use the injected notes, console and utils capabilities",
	},
	{
		construct: "process",
		re:        regexp.MustCompile(free(`process`)),
		message:   "access to process is not permitted",
	},
	{
		construct: "global object",
		re:        regexp.MustCompile(free(`globalThis|global|window`)),
		message:   "access to the global object is not permitted",
	},
	{
		construct:  "__proto__",
		re:         regexp.MustCompile(`(__proto__)`),
		message:    "access to __proto__ is not permitted",
		suggestion: "Avoid prototype manipulation; build plain objects instead",
	},
	{
		construct: "__proto__",
		re:        regexp.MustCompile(`\[\s*(["'` + "`" + `]__proto__["'` + "`" + `])\s*\]`),
		raw:       true,
		message:   "access to __proto__ is not permitted",
	},
	{
		construct: "constructor chain",
		re:        regexp.MustCompile(`(\.\s*constructor\s*\.\s*constructor)\b`),
		message:   "reaching the Function constructor through .constructor.constructor is not permitted",
	},
	{
		construct: "constructor chain",
		re:        regexp.MustCompile(`\[\s*(["'` + "`" + `]constructor["'` + "`" + `])\s*\]`),
		raw:       true,
		message:   "accessing constructor by computed property is not permitted",
	},
	{
		construct: "Reflect",
		re:        regexp.MustCompile(free(`Reflect|Proxy`)),
		message:   "use of Reflect or Proxy is not permitted",
	},
}

func (v *Validator) checkSecurity(def *function.Definition, result *function.ValidationResult) {
	for _, p := range securityPatterns {
		var matches []script.Match
		if p.raw {
			matches = script.FindAllRaw(def.Code, p.re)
		} else {
			matches = script.FindAll(def.Code, p.re)
		}
		for _, m := range matches {
			msg := p.message
			if p.construct == "global object" || p.construct == "Reflect" {
				msg = fmt.Sprintf("%s (%s)", p.message, m.Text)
			}
			result.AddError(function.Issue{
				Kind:       function.IssueSecurity,
				Message:    msg,
				Line:       m.Line,
				Column:     m.Column,
				Suggestion: p.suggestion,
			})
		}
	}
}
