package script

import "strings"

// Blank returns a copy of src in which comments and the contents of string,
// template and regular expression literals are replaced by spaces. Quote
// characters, regex delimiters and flags, template
// substitutions (${...}) and newlines are kept, so byte offsets, line and
// column numbers of the result match the original source.
//
// Pattern scans run over the blanked text so that words inside comments or
// string literals are never mistaken for code.
func Blank(src string) string {
	out := []byte(src)
	n := len(out)

	// Each entry is the brace depth at which a template substitution was
	// opened; when depth falls back to it the template literal resumes.
	var templates []int
	depth := 0

	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}

	i := 0
	for i < n {
		c := out[i]
		switch {
		case c == '/' && i+1 < n && out[i+1] == '/':
			for i < n && out[i] != '\n' {
				blank(i)
				i++
			}
		case c == '/' && i+1 < n && out[i+1] == '*':
			blank(i)
			blank(i + 1)
			i += 2
			for i < n && !(out[i] == '*' && i+1 < n && out[i+1] == '/') {
				blank(i)
				i++
			}
			if i < n {
				blank(i)
				blank(i + 1)
				i += 2
			}
		case c == '/' && regexAllowed(out, i):
			i = blankRegex(out, i, blank)
		case c == '"' || c == '\'':
			i = blankQuoted(out, i, c, blank)
		case c == '`':
			var subst bool
			i, subst = blankTemplate(out, i+1, blank)
			if subst {
				// stopped on "${": continue in code mode
				templates = append(templates, depth)
				depth++
				i++
			}
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
			if len(templates) > 0 && depth == templates[len(templates)-1] {
				templates = templates[:len(templates)-1]
				var subst bool
				i, subst = blankTemplate(out, i, blank)
				if subst {
					templates = append(templates, depth)
					depth++
					i++
				}
			}
		default:
			i++
		}
	}
	return string(out)
}

// regexKeywords may directly precede an expression, so a '/' after them
// opens a regex literal rather than dividing.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// regexAllowed reports whether a '/' at i starts a regex literal. It looks
// at the previous significant character of the already blanked prefix: after
// an operand (identifier, number, closing paren/bracket, string) it is a
// division, anywhere else an expression is expected.
func regexAllowed(out []byte, i int) bool {
	j := i - 1
	for j >= 0 && (out[j] == ' ' || out[j] == '\t' || out[j] == '\n' || out[j] == '\r') {
		j--
	}
	if j < 0 {
		return true
	}
	if j > 0 && (out[j] == '+' || out[j] == '-') && out[j-1] == out[j] {
		// postfix a++ / b
		return false
	}
	switch c := out[j]; {
	case c == ')' || c == ']' || c == '"' || c == '\'' || c == '`':
		return false
	case isIdentByte(c):
		end := j + 1
		for j >= 0 && isIdentByte(out[j]) {
			j--
		}
		return regexKeywords[string(out[j+1:end])]
	}
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// blankRegex blanks the body of a /.../ literal starting at the opening slash,
// including character classes where '/' does not terminate, and returns the
// index just past the closing slash. Flags stay as code. A literal with no
// closing slash on its line is left untouched.
func blankRegex(out []byte, start int, blank func(int)) int {
	end := regexEnd(out, start)
	if end < 0 {
		return start + 1
	}
	for i := start + 1; i < end-1; i++ {
		blank(i)
	}
	return end
}

// regexEnd returns the index past the closing slash of the literal at start,
// or -1 if the line ends first.
func regexEnd(out []byte, start int) int {
	inClass := false
	for i := start + 1; i < len(out); i++ {
		switch out[i] {
		case '\\':
			if i+1 < len(out) && out[i+1] == '\n' {
				return -1
			}
			i++
		case '\n':
			return -1
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i + 1
			}
		}
	}
	return -1
}

// blankQuoted blanks a '...' or "..." literal starting at the opening quote
// and returns the index just past the closing quote.
func blankQuoted(out []byte, start int, quote byte, blank func(int)) int {
	i := start + 1
	for i < len(out) {
		switch out[i] {
		case '\\':
			blank(i)
			if i+1 < len(out) {
				blank(i + 1)
			}
			i += 2
			continue
		case quote:
			return i + 1
		case '\n':
			// unterminated literal; the parser reports it
			return i
		}
		blank(i)
		i++
	}
	return i
}

// blankTemplate blanks template literal text starting at i (just past a
// backtick or a closing substitution brace). It returns the index past the
// closing backtick, or the index of the '{' of a "${" substitution with
// subst set.
func blankTemplate(out []byte, i int, blank func(int)) (next int, subst bool) {
	for i < len(out) {
		switch {
		case out[i] == '\\':
			blank(i)
			if i+1 < len(out) {
				blank(i + 1)
			}
			i += 2
			continue
		case out[i] == '`':
			return i + 1, false
		case out[i] == '$' && i+1 < len(out) && out[i+1] == '{':
			return i + 1, true
		}
		blank(i)
		i++
	}
	return i, false
}

// Position converts a byte offset into a 1-based line and column.
func Position(src string, offset int) (line, column int) {
	if offset > len(src) {
		offset = len(src)
	}
	line = 1 + strings.Count(src[:offset], "\n")
	lineStart := strings.LastIndex(src[:offset], "\n") + 1
	return line, offset - lineStart + 1
}

// NonTrivialLines counts lines that contain code once comments are removed.
func NonTrivialLines(src string) int {
	count := 0
	for _, line := range strings.Split(Blank(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "{" || trimmed == "}" || trimmed == "};" {
			continue
		}
		count++
	}
	return count
}

// BraceBalance walks the blanked source and reports whether curly braces
// never close below the starting depth and end balanced.
func BraceBalance(blanked string) (ok bool, offset int) {
	depth := 0
	for i := 0; i < len(blanked); i++ {
		switch blanked[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false, i
			}
		}
	}
	return depth == 0, len(blanked)
}
