package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/script"
)

// SourceName is the file name diagnostics and stack traces refer to.
const SourceName = "function.js"

var lineColRegex = regexp.MustCompile(`Line (\d+):(\d+)`)

// checkSyntax lowers the body, parses it and compiles it in strict mode.
// It reports whether the body was accepted.
func (v *Validator) checkSyntax(def *function.Definition, result *function.ValidationResult) bool {
	blanked := script.Blank(def.Code)
	if ok, offset := script.BraceBalance(blanked); !ok {
		line, col := script.Position(def.Code, offset)
		result.AddError(function.Issue{
			Kind:       function.IssueSyntax,
			Message:    "unbalanced braces: the body must not close the enclosing function",
			Line:       line,
			Column:     col,
			Suggestion: "Check that every { has a matching }",
		})
		return false
	}

	lowered := script.Lower(def)
	if _, err := parser.ParseFile(nil, SourceName, lowered.Source, 0); err != nil {
		for _, issue := range parseIssues(err) {
			result.AddError(issue)
		}
		return false
	}

	if _, err := goja.Compile(SourceName, lowered.Source, true); err != nil {
		result.AddError(syntaxIssue(err.Error(), 0, 0))
		return false
	}
	return true
}

// parseIssues converts parser diagnostics into issues positioned in the body.
func parseIssues(err error) []function.Issue {
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		issues := make([]function.Issue, 0, len(list))
		for _, e := range list {
			issues = append(issues, syntaxIssue(e.Message, e.Position.Line, e.Position.Column))
		}
		return issues
	}
	return []function.Issue{syntaxIssue(err.Error(), 0, 0)}
}

// syntaxIssue builds a syntax issue from a diagnostic in lowered-source
// coordinates. When no position is known it is recovered from the message.
func syntaxIssue(message string, line, col int) function.Issue {
	if line == 0 {
		if m := lineColRegex.FindStringSubmatch(message); m != nil {
			line, _ = strconv.Atoi(m[1])
			col, _ = strconv.Atoi(m[2])
		}
	}
	message = lineColRegex.ReplaceAllString(message, "")
	message = strings.TrimPrefix(message, "SyntaxError: ")
	message = strings.TrimPrefix(strings.TrimSpace(message), SourceName+":")
	message = strings.TrimSpace(message)
	if message == "" {
		message = "invalid syntax"
	}

	issue := function.Issue{
		Kind:    function.IssueSyntax,
		Message: message,
	}
	if line > 0 {
		issue.Line = script.BodyLine(line)
		issue.Column = col
	}
	return issue
}
