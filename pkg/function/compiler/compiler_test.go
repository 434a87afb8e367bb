package compiler

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
)

func doubleFunction() *function.Function {
	return &function.Function{
		ID: "fn-1",
		Definition: function.Definition{
			Name:        "double",
			Description: "Doubles a number",
			Parameters:  []function.Parameter{{Name: "n", Type: "number", Description: "value"}},
			ReturnType:  "number",
			Code:        "return n * 2;",
		},
		Metadata: function.Metadata{Version: 1},
	}
}

func TestCompile_Cached(t *testing.T) {
	c := New(nil)
	fn := doubleFunction()

	first, err := c.Compile(fn)
	require.NoError(t, err)
	second, err := c.Compile(fn)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, Stats{CompiledFunctions: 1, CacheSize: 1}, c.Stats())
	assert.Equal(t, "fn-1", first.DefinitionID)
	assert.Equal(t, "double", first.EntryPoint)
	assert.False(t, first.Async)
	assert.NotNil(t, first.Program)
}

func TestCompile_RecompilesOnSourceChange(t *testing.T) {
	c := New(nil)
	fn := doubleFunction()

	first, err := c.Compile(fn)
	require.NoError(t, err)

	// metadata-only changes keep the artifact
	fn.Description = "new description"
	fn.Metadata.Version = 2
	same, err := c.Compile(fn)
	require.NoError(t, err)
	assert.Same(t, first, same)

	fn.Code = "return n + n;"
	changed, err := c.Compile(fn)
	require.NoError(t, err)

	assert.NotSame(t, first, changed)
	assert.NotEqual(t, first.Fingerprint, changed.Fingerprint)
	assert.Equal(t, Stats{CompiledFunctions: 2, CacheSize: 1}, c.Stats())
}

func TestCompile_Rejected(t *testing.T) {
	c := New(nil)
	fn := doubleFunction()
	fn.Code = `return eval("n");`

	a, err := c.Compile(fn)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.True(t, errors.Is(err, function.ErrCompilationRejected))
	assert.NotEmpty(t, function.IssuesOf(err))
	assert.Equal(t, Stats{}, c.Stats(), "nothing is cached or counted")
}

func TestCompile_Dependencies(t *testing.T) {
	c := New(nil)
	fn := doubleFunction()
	fn.Code = "console.log('looking up', n);\nconst note = await notes.get(String(n));\n// utils is not used\nreturn note ? 1 : 0;"

	a, err := c.Compile(fn)
	require.NoError(t, err)
	assert.Equal(t, []capability.Name{capability.Console, capability.Notes}, a.Dependencies)
	assert.True(t, a.Async)
	assert.True(t, a.DependsOn(capability.Notes))
	assert.False(t, a.DependsOn(capability.Utils))
}

func TestCompile_ConcurrentCallsShareOneCompilation(t *testing.T) {
	c := New(nil)
	fn := doubleFunction()

	const n = 32
	artifacts := make([]*Artifact, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := c.Compile(fn.Clone())
			assert.NoError(t, err)
			artifacts[i] = a
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), c.Stats().CompiledFunctions)
	for _, a := range artifacts {
		assert.Same(t, artifacts[0], a)
	}
}

func TestInvalidateAndClear(t *testing.T) {
	c := New(nil)
	one := doubleFunction()
	two := doubleFunction()
	two.ID = "fn-2"

	_, err := c.Compile(one)
	require.NoError(t, err)
	_, err = c.Compile(two)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().CacheSize)

	c.Invalidate(one.ID)
	assert.Equal(t, 1, c.Stats().CacheSize)

	_, err = c.Compile(one)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Stats().CompiledFunctions)

	c.ClearCache()
	assert.Equal(t, 0, c.Stats().CacheSize)

	_, err = c.Compile(two)
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Stats().CompiledFunctions)
}
