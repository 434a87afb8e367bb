package script

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/function"
)

func TestBlank(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "line comment",
			src:  "a // eval(x)\nb",
			want: "a           \nb",
		},
		{
			name: "block comment keeps newlines",
			src:  "a /* x\ny */ b",
			want: "a     \n     b",
		},
		{
			name: "double quoted string",
			src:  `x = "eval(1)";`,
			want: `x = "       ";`,
		},
		{
			name: "escaped quote",
			src:  `'a\'b'`,
			want: `'    '`,
		},
		{
			name: "template keeps substitutions",
			src:  "`a ${notes.get(id)} b`",
			want: "`  ${notes.get(id)}  `",
		},
		{
			name: "regex literal with quote",
			src:  `r = /'/; eval(1)`,
			want: `r = / /; eval(1)`,
		},
		{
			name: "regex after return with class and flags",
			src:  `return /[/"]x\//gi.test(s)`,
			want: `return /       /gi.test(s)`,
		},
		{
			name: "division is not a regex",
			src:  `a = (b + c) / 2 / d; e = "x"`,
			want: `a = (b + c) / 2 / d; e = " "`,
		},
		{
			name: "postfix increment then division",
			src:  `x = i++ / 2; y = 'a'`,
			want: `x = i++ / 2; y = ' '`,
		},
		{
			name: "unclosed regex leaves the line visible",
			src:  "x = a ? /b : eval(\"c\")\nd",
			want: "x = a ? /b : eval(\" \")\nd",
		},
		{
			name: "nested template",
			src:  "`x ${ `y ${z}` } w`",
			want: "`  ${ `  ${z}` }  `",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Blank(tt.src)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.src), len(got))
		})
	}
}

func TestPosition(t *testing.T) {
	src := "one\ntwo\nthree"
	line, col := Position(src, strings.Index(src, "three"))
	assert.Equal(t, 3, line)
	assert.Equal(t, 1, col)

	line, col = Position(src, strings.Index(src, "wo"))
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)
}

func TestNonTrivialLines(t *testing.T) {
	src := "// comment\n\nconst a = 1;\n{\n  return a;\n}\n/* block */"
	assert.Equal(t, 2, NonTrivialLines(src))
}

func TestBraceBalance(t *testing.T) {
	ok, _ := BraceBalance(Blank("if (a) { return '}'; }"))
	assert.True(t, ok)

	ok, _ = BraceBalance(Blank("return /}/.test(s);"))
	assert.True(t, ok)

	ok, _ = BraceBalance(Blank("}; leak(); (function () {"))
	assert.False(t, ok)
}

func TestReferences(t *testing.T) {
	src := `
const n = notes.get(id); // console is mentioned only in a comment
const s = "utils";
return obj.console;`
	got := References(src, []string{"console", "notes", "utils"})
	assert.Equal(t, []string{"notes"}, got)
}

func TestFindAll(t *testing.T) {
	src := "const a = 1;\nreturn eval('a');"
	matches := FindAll(src, regexp.MustCompile(`\beval\s*\(`))
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].Line)
	assert.Equal(t, 8, matches[0].Column)
}

func TestLower(t *testing.T) {
	def := &function.Definition{
		Name:       "double",
		Parameters: []function.Parameter{{Name: "n", Type: "number"}},
		ReturnType: "number",
		Code:       "return n * 2;",
	}

	lowered := Lower(def)
	assert.Equal(t, "double", lowered.EntryPoint)
	assert.False(t, lowered.Async)
	assert.Contains(t, lowered.Source, "return function double(n) {\nreturn n * 2;")

	lines := strings.Split(lowered.Source, "\n")
	assert.Equal(t, "return n * 2;", lines[HeaderLines])
}

func TestLower_Async(t *testing.T) {
	def := &function.Definition{
		Name:       "fetchTitle",
		Parameters: []function.Parameter{{Name: "id", Type: "string"}},
		ReturnType: "string",
		Code:       "const n = await notes.get(id);\nreturn n.title;",
	}
	assert.True(t, Lower(def).Async)

	def.Code = "return 'await';"
	assert.False(t, Lower(def).Async)

	def.ReturnType = "Promise<string>"
	assert.True(t, Lower(def).Async)
}

func TestFingerprint(t *testing.T) {
	def := &function.Definition{
		Name:       "double",
		Parameters: []function.Parameter{{Name: "n", Type: "number"}},
		Code:       "return n * 2;",
	}
	fp := Fingerprint(def)
	assert.Equal(t, fp, Fingerprint(def))

	def.Description = "changed description"
	assert.Equal(t, fp, Fingerprint(def), "description is not part of the executable form")

	def.Code = "return n + n;"
	assert.NotEqual(t, fp, Fingerprint(def))

	changed := Fingerprint(def)
	def.Parameters[0].Name = "m"
	assert.NotEqual(t, changed, Fingerprint(def))
}

func TestFindAll_CapturingGroup(t *testing.T) {
	re := regexp.MustCompile(`(?:^|[^.\w$])(eval)\b`)
	matches := FindAll("x.eval(1); eval(2)", re)
	require.Len(t, matches, 1)
	assert.Equal(t, "eval", matches[0].Text)
	assert.Equal(t, 12, matches[0].Column)
}
