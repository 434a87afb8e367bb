package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/script"
)

var (
	whileTrueRegex = regexp.MustCompile(`\bwhile\s*\(\s*(?:true|1)\s*\)`)
	forEverRegex   = regexp.MustCompile(`\bfor\s*\(\s*;\s*;\s*\)`)
	loopExitRegex  = regexp.MustCompile(`\b(?:break|return|throw)\b`)
)

func (v *Validator) checkPerformance(def *function.Definition, result *function.ValidationResult) {
	blanked := script.Blank(def.Code)

	for _, re := range []*regexp.Regexp{whileTrueRegex, forEverRegex} {
		for _, loc := range re.FindAllStringIndex(blanked, -1) {
			body := loopBody(blanked, loc[0], loc[1])
			if loopExitRegex.MatchString(body) {
				continue
			}
			line, col := script.Position(def.Code, loc[0])
			result.AddWarning(function.Issue{
				Kind:       function.IssuePerformance,
				Message:    "loop has no visible exit (break, return or throw) and may never terminate",
				Line:       line,
				Column:     col,
				Suggestion: "Add an explicit exit condition; executions are stopped at the timeout",
			})
		}
	}

	if n := CountLines(def.Code); n > v.limits.MaxLines {
		result.AddWarning(function.Issue{
			Kind:       function.IssuePerformance,
			Message:    fmt.Sprintf("function body has %d lines of code (more than %d)", n, v.limits.MaxLines),
			Suggestion: "Split the logic into smaller functions",
		})
	}
}

// loopBody returns the blanked text of the loop whose header spans
// [start, end). A "while (true)" preceded by a block is treated as the tail
// of a do-while loop.
func loopBody(blanked string, start, end int) string {
	rest := strings.TrimLeft(blanked[end:], " \t\r\n")
	if strings.HasPrefix(rest, "{") {
		open := len(blanked) - len(rest)
		if close := matchForward(blanked, open); close > open {
			return blanked[open : close+1]
		}
		return blanked[open:]
	}

	before := strings.TrimRight(blanked[:start], " \t\r\n")
	if strings.HasSuffix(before, "}") {
		close := len(before) - 1
		if open := matchBackward(blanked, close); open >= 0 {
			head := strings.TrimRight(blanked[:open], " \t\r\n")
			if strings.HasSuffix(head, "do") {
				return blanked[open : close+1]
			}
		}
	}

	// single-statement body
	if i := strings.IndexAny(rest, ";\n"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func matchForward(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func matchBackward(s string, close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		switch s[i] {
		case '}':
			depth++
		case '{':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
