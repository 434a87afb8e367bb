package script

import (
	"regexp"
	"sort"
)

// References returns the subset of names that appear as free identifiers
// (not as property names after a dot) in src. Comments and string literals
// are ignored. The result is sorted.
func References(src string, names []string) []string {
	blanked := Blank(src)
	var found []string
	for _, name := range names {
		re := regexp.MustCompile(`(^|[^.\w$])` + regexp.QuoteMeta(name) + `\b`)
		if re.MatchString(blanked) {
			found = append(found, name)
		}
	}
	sort.Strings(found)
	return found
}

// Match is a pattern hit inside source text.
type Match struct {
	Text   string
	Offset int
	Line   int
	Column int
}

// FindAll runs re over the blanked form of src and reports every match
// with its position in the original source. When re has a capturing group
// that participated in the match, the group is reported instead of the
// whole match.
func FindAll(src string, re *regexp.Regexp) []Match {
	return findAll(src, Blank(src), re)
}

// FindAllRaw is FindAll over the unblanked source.
func FindAllRaw(src string, re *regexp.Regexp) []Match {
	return findAll(src, src, re)
}

func findAll(src, text string, re *regexp.Regexp) []Match {
	var matches []Match
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}
		line, col := Position(src, start)
		matches = append(matches, Match{
			Text:   text[start:end],
			Offset: start,
			Line:   line,
			Column: col,
		})
	}
	return matches
}
