package capability_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/function/capability"
)

type logLine struct {
	level, message string
}

func newEnv(t *testing.T) (*capability.Env, *[]logLine) {
	t.Helper()
	var lines []logLine
	env := &capability.Env{
		Runtime: goja.New(),
		Context: context.Background(),
		Log: func(level, message string) {
			lines = append(lines, logLine{level, message})
		},
	}
	return env, &lines
}

func run(t *testing.T, env *capability.Env, src string) goja.Value {
	t.Helper()
	v, err := env.Runtime.RunString(src)
	require.NoError(t, err)
	return v
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"console", "notes", "utils"}, capability.Names())
	assert.True(t, capability.IsName("notes"))
	assert.False(t, capability.IsName("fs"))
}

func TestInstall_OnlyDeclared(t *testing.T) {
	env, _ := newEnv(t)

	installed, err := capability.Install(env, capability.Standard(notes.NewManager()), []capability.Name{capability.Utils})
	require.NoError(t, err)
	assert.Equal(t, []capability.Name{capability.Utils}, installed)

	assert.Equal(t, "object", run(t, env, "typeof utils").String())
	assert.Equal(t, "undefined", run(t, env, "typeof notes").String())
	assert.Equal(t, "undefined", run(t, env, "typeof console").String())
}

func TestInstall_MissingDependency(t *testing.T) {
	env, _ := newEnv(t)

	_, err := capability.Install(env, capability.Standard(nil), []capability.Name{capability.Console, capability.Notes})
	require.Error(t, err)

	var missing *capability.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []capability.Name{capability.Notes}, missing.Missing)
	assert.Contains(t, err.Error(), "notes")

	// nothing was installed
	assert.Equal(t, "undefined", run(t, env, "typeof console").String())
}

func TestInstall_Frozen(t *testing.T) {
	env, _ := newEnv(t)
	_, err := capability.Install(env, capability.Standard(nil), []capability.Name{capability.Console, capability.Utils})
	require.NoError(t, err)

	_, err = env.Runtime.RunString(`"use strict"; console = {};`)
	assert.Error(t, err, "global must not be reassignable")

	_, err = env.Runtime.RunString(`"use strict"; utils.now = function () { return "fake"; };`)
	assert.Error(t, err, "capability object must be frozen")

	assert.True(t, run(t, env, "Object.isFrozen(console)").ToBoolean())
}

func TestConsole(t *testing.T) {
	env, lines := newEnv(t)
	_, err := capability.Install(env, capability.Standard(nil), []capability.Name{capability.Console})
	require.NoError(t, err)

	run(t, env, `
console.log("a", 1, {b: 2}, [1, 2], undefined, null);
console.warn("careful");
console.error(new Error("boom"));
`)

	require.Len(t, *lines, 3)
	assert.Equal(t, logLine{"log", `a 1 {"b":2} [1,2] undefined null`}, (*lines)[0])
	assert.Equal(t, logLine{"warn", "careful"}, (*lines)[1])
	assert.Equal(t, logLine{"error", "Error: boom"}, (*lines)[2])
}

func TestUtils(t *testing.T) {
	env, _ := newEnv(t)
	_, err := capability.Install(env, capability.Standard(nil), []capability.Name{capability.Utils})
	require.NoError(t, err)

	assert.Equal(t, "hello-world", run(t, env, `utils.slugify("Hello, World!")`).String())
	assert.Len(t, run(t, env, `utils.uuid()`).String(), 36)

	now, err := time.Parse(time.RFC3339, run(t, env, `utils.now()`).String())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":     "hello-world",
		"  many   spaces  ": "many-spaces",
		"already-slugged":   "already-slugged",
		"ÜNICODE 42":        "nicode-42",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, capability.Slugify(in), in)
	}
}

func TestNotes(t *testing.T) {
	env, _ := newEnv(t)
	store := notes.NewManager()
	_, err := capability.Install(env, capability.Standard(store), []capability.Name{capability.Notes})
	require.NoError(t, err)

	id := run(t, env, `notes.create({title: "Plan", content: "draft", tags: ["work"]}).id`).String()
	assert.Equal(t, 1, store.Count())

	assert.Equal(t, "Plan", run(t, env, fmt.Sprintf(`notes.get(%q).title`, id)).String())
	assert.True(t, goja.IsNull(run(t, env, `notes.get("missing")`)))

	assert.Equal(t, "Final", run(t, env, fmt.Sprintf(`notes.update(%q, {title: "Final"}).title`, id)).String())
	assert.Equal(t, int64(1), run(t, env, `notes.list({tag: "work"}).length`).ToInteger())
	assert.Equal(t, int64(1), run(t, env, `notes.search("draft").length`).ToInteger())
	assert.Equal(t, `["work"]`, run(t, env, `JSON.stringify(notes.tags())`).String())

	// host errors surface as catchable guest errors
	msg := run(t, env, `
try {
  notes.create({title: ""});
  "no error";
} catch (e) {
  e.message;
}`).String()
	assert.Contains(t, msg, "title cannot be empty")

	assert.True(t, run(t, env, fmt.Sprintf(`notes.delete(%q)`, id)).ToBoolean())
	assert.Equal(t, 0, store.Count())
}

func TestToValue(t *testing.T) {
	rt := goja.New()

	set := func(name string, v interface{}) {
		require.NoError(t, rt.Set(name, capability.ToValue(rt, v)))
	}
	set("m", map[string]interface{}{"b": []interface{}{true, "s"}, "a": 1})
	set("when", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	set("note", &capability.Note{ID: "n1", Title: "T", Tags: []string{"x"}})
	set("none", (*capability.Note)(nil))
	set("list", []string{"p", "q"})

	v, err := rt.RunString(`JSON.stringify([m, when, note.title, note.tags, none, list])`)
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1,"b":[true,"s"]},"2024-01-02T03:04:05Z","T",["x"],null,["p","q"]]`, v.String())

	// converted maps are plain objects: mutating them does not touch host data
	host := map[string]interface{}{"k": "v"}
	set("h", host)
	_, err = rt.RunString(`h.k = "changed"; h.extra = 1;`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"k": "v"}, host)
}
