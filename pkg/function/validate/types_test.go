package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"string", "string"},
		{" number ", "number"},
		{"string[]", "string[]"},
		{"Array<number>", "number[]"},
		{"number[][]", "number[][]"},
		{"(string | number)[]", "(string | number)[]"},
		{"Record<string, boolean>", "Record<string, boolean>"},
		{"Promise<void>", "Promise<void>"},
		{"string | null", "string | null"},
		{"'a' | 'b'", `"a" | "b"`},
		{"{ title: string; tags?: string[] }", "{ title: string; tags?: string[] }"},
		{"Note", "Note"},
		{"unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			typ, err := ParseType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, typ.String())
		})
	}
}

func TestParseType_Malformed(t *testing.T) {
	for _, input := range []string{"", "   ", "string[", "Array<number", "Record<string>", "Array<>", "a |", "{ a }", "number<string>", "%"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseType(input)
			assert.Error(t, err)
		})
	}
}

func TestType_Matches(t *testing.T) {
	tests := []struct {
		typ   string
		value any
		want  bool
	}{
		{"string", "x", true},
		{"string", 1, false},
		{"number", 1, true},
		{"number", 1.5, true},
		{"number", "1", false},
		{"boolean", false, true},
		{"null", nil, true},
		{"any", map[string]any{}, true},
		{"string[]", []any{"a", "b"}, true},
		{"string[]", []any{"a", 2.0}, false},
		{"Array<number>", []int{1, 2}, true},
		{"number[]", "nope", false},
		{"object", map[string]any{"a": 1}, true},
		{"object", []any{}, false},
		{"object", nil, false},
		{"Record<string, number>", map[string]any{"a": 1.0}, true},
		{"Record<string, number>", map[string]any{"a": "x"}, false},
		{"string | number", 3.0, true},
		{"string | number", true, false},
		{"'asc' | 'desc'", "asc", true},
		{"'asc' | 'desc'", "up", false},
		{"1 | 2", 2.0, true},
		{"{ title: string; tags?: string[] }", map[string]any{"title": "t"}, true},
		{"{ title: string; tags?: string[] }", map[string]any{"tags": []any{"x"}}, false},
		{"{ title: string; tags?: string[] }", map[string]any{"title": "t", "tags": "x"}, false},
		{"Note", map[string]any{"id": "1"}, true},
		{"Note", "1", false},
		{"Promise<string>", "x", true},
	}

	for _, tt := range tests {
		typ, err := ParseType(tt.typ)
		require.NoError(t, err, tt.typ)
		assert.Equal(t, tt.want, typ.Matches(tt.value), "%s matches %#v", tt.typ, tt.value)
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "null", TypeOf(nil))
	assert.Equal(t, "string", TypeOf("x"))
	assert.Equal(t, "number", TypeOf(3))
	assert.Equal(t, "boolean", TypeOf(true))
	assert.Equal(t, "array", TypeOf([]any{}))
	assert.Equal(t, "object", TypeOf(map[string]any{}))
}
