package sandbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/compiler"
)

func newFunction(name, returnType, code string, params ...function.Parameter) *function.Function {
	return &function.Function{
		ID: name + "-id",
		Definition: function.Definition{
			Name:        name,
			Description: "test function " + name,
			Parameters:  params,
			ReturnType:  returnType,
			Code:        code,
		},
		Metadata: function.Metadata{Version: 1},
	}
}

func numberParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: "number", Description: name}
}

type usageLog struct {
	mu  sync.Mutex
	ids []string
}

func (u *usageLog) RecordUsage(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ids = append(u.ids, id)
	return nil
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (s *stateLog) observe(_ string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, st)
}

func TestExecute_Success(t *testing.T) {
	usage := &usageLog{}
	states := &stateLog{}
	exec := New(compiler.New(nil), WithUsageRecorder(usage), WithStateObserver(states.observe))

	fn := newFunction("double", "number", "return n * 2;", numberParam("n"))
	result := exec.Execute(context.Background(), fn, map[string]any{"n": 21}, nil)

	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, int64(42), result.Value)
	assert.Nil(t, result.Error)
	assert.Equal(t, []string{"double-id"}, usage.ids)
	assert.Equal(t, []State{
		StateValidating, StateCompiling, StateInstantiating, StateRunning, StateCompleted, StateDisposed,
	}, states.states)
	assert.Equal(t, Stats{Executions: 1, Completed: 1, SandboxesCreated: 1}, exec.Stats())
}

func TestExecute_ParameterValidationNeverCompiles(t *testing.T) {
	comp := compiler.New(nil)
	usage := &usageLog{}
	states := &stateLog{}
	exec := New(comp, WithUsageRecorder(usage), WithStateObserver(states.observe))

	fn := newFunction("double", "number", "return n * 2;", numberParam("n"))

	result := exec.Execute(context.Background(), fn, map[string]any{}, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindParameterValidation, result.Error.Kind)
	assert.Contains(t, result.Error.Message, `missing required parameter "n"`)
	assert.NotEmpty(t, result.Error.Issues)

	result = exec.Execute(context.Background(), fn, map[string]any{"n": "twenty"}, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindParameterValidation, result.Error.Kind)

	assert.Equal(t, compiler.Stats{}, comp.Stats())
	assert.Equal(t, int64(0), exec.Stats().SandboxesCreated)
	assert.Empty(t, usage.ids)
	assert.Equal(t, []State{StateValidating, StateFailed, StateDisposed}, states.states[:3])
}

func TestExecute_Defaults(t *testing.T) {
	exec := New(nil)
	fn := newFunction("scale", "number", "return n * factor;",
		numberParam("n"),
		function.Parameter{Name: "factor", Type: "number", Description: "multiplier", Optional: true, Default: 3},
	)

	result := exec.Execute(context.Background(), fn, map[string]any{"n": 2}, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, int64(6), result.Value)

	result = exec.Execute(context.Background(), fn, map[string]any{"n": 2, "factor": 0.5}, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, int64(1), result.Value)
}

func TestExecute_CompilationRejected(t *testing.T) {
	exec := New(nil)
	fn := newFunction("sneaky", "any", "return eval('1');")

	result := exec.Execute(context.Background(), fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindCompilationRejected, result.Error.Kind)
	assert.NotEmpty(t, result.Error.Issues)
	assert.Equal(t, int64(0), exec.Stats().SandboxesCreated)
}

func TestExecute_Timeout(t *testing.T) {
	usage := &usageLog{}
	exec := New(nil, WithTimeout(100*time.Millisecond), WithUsageRecorder(usage))
	fn := newFunction("spin", "number", "let i = 0;\nwhile (true) {\n  i++;\n}")

	start := time.Now()
	result := exec.Execute(context.Background(), fn, nil, nil)

	require.False(t, result.Success)
	assert.Equal(t, function.KindTimeout, result.Error.Kind)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int64(1), exec.Stats().TimedOut)
	assert.Empty(t, usage.ids)

	// the executor keeps working after a timeout
	ok := exec.Execute(context.Background(), newFunction("one", "number", "return 1;"), nil, nil)
	assert.True(t, ok.Success)
}

func TestExecute_Cancelled(t *testing.T) {
	exec := New(nil)
	fn := newFunction("spin", "number", "let i = 0;\nwhile (true) {\n  i++;\n}")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	result := exec.Execute(ctx, fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
	assert.Equal(t, "execution cancelled", result.Error.Message)
}

func TestExecute_Thrown(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		contains string
	}{
		{name: "error object", code: `throw new Error("bad input");`, contains: "bad input"},
		{name: "type error", code: "const o = null;\nreturn o.x;", contains: "TypeError"},
		{name: "string", code: `throw "plain";`, contains: "plain"},
		{name: "null", code: "throw null;", contains: "without an error value"},
		{name: "undefined", code: "throw undefined;", contains: "without an error value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usage := &usageLog{}
			exec := New(nil, WithUsageRecorder(usage))
			result := exec.Execute(context.Background(), newFunction("thrower", "any", tt.code), nil, nil)

			require.False(t, result.Success)
			assert.Equal(t, function.KindExecutionError, result.Error.Kind)
			assert.Contains(t, result.Error.Message, tt.contains)
			assert.Empty(t, usage.ids)
			assert.Equal(t, int64(1), exec.Stats().Failed)
		})
	}
}

func TestExecute_Async(t *testing.T) {
	exec := New(nil)

	fn := newFunction("inc", "Promise<number>", "const v = await Promise.resolve(n);\nreturn v + 1;", numberParam("n"))
	result := exec.Execute(context.Background(), fn, map[string]any{"n": 1}, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, int64(2), result.Value)

	fn = newFunction("reject", "Promise<number>", "await Promise.resolve(1);\nthrow new Error(\"nope\");")
	result = exec.Execute(context.Background(), fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
	assert.Equal(t, "nope", result.Error.Message)

	fn = newFunction("pending", "Promise<number>", "return new Promise(function () {});")
	result = exec.Execute(context.Background(), fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "never settled")
}

func TestExecute_ReturnValueNormalized(t *testing.T) {
	exec := New(nil)

	fn := newFunction("shape", "any", "return { when: new Date(0), list: [1, 2.5], skip: function () {}, none: null };")
	result := exec.Execute(context.Background(), fn, nil, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, map[string]any{
		"when": "1970-01-01T00:00:00.000Z",
		"list": []any{int64(1), 2.5},
		"none": nil,
	}, result.Value)

	fn = newFunction("nothing", "void", "const x = 1;")
	result = exec.Execute(context.Background(), fn, nil, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Nil(t, result.Value)

	fn = newFunction("cyclic", "any", "const a = {};\na.self = a;\nreturn a;")
	result = exec.Execute(context.Background(), fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "not serializable")
}

func TestExecute_Capabilities(t *testing.T) {
	store := notes.NewManager()
	exec := New(nil)

	fn := newFunction("remember", "string",
		"const n = notes.create({ title: t, content: \"body\", tags: [\"memo\"] });\nconsole.log(\"created\", n.title);\nreturn utils.slugify(n.title);",
		function.Parameter{Name: "t", Type: "string", Description: "title"},
	)

	result := exec.Execute(context.Background(), fn, map[string]any{"t": "Hello World"}, capability.Standard(store))
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, "hello-world", result.Value)
	assert.Equal(t, []string{"[log] created Hello World"}, result.Logs)
	assert.Equal(t, 1, store.Count())
}

func TestExecute_MissingCapability(t *testing.T) {
	exec := New(nil)
	fn := newFunction("lookup", "any", "return notes.tags();")

	result := exec.Execute(context.Background(), fn, nil, capability.Standard(nil))
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
	assert.Contains(t, result.Error.Message, "notes")
}

func TestExecute_Isolation(t *testing.T) {
	exec := New(nil)

	pollute := newFunction("pollute", "number", "Object.prototype.leaked = \"yes\";\nArray.prototype.extra = 1;\nreturn 1;")
	probe := newFunction("probe", "string", "const o = {};\nreturn typeof o.leaked + \" \" + typeof [].extra;")

	require.True(t, exec.Execute(context.Background(), pollute, nil, nil).Success)
	result := exec.Execute(context.Background(), probe, nil, nil)
	require.True(t, result.Success, "%+v", result.Error)
	assert.Equal(t, "undefined undefined", result.Value)
	assert.Equal(t, int64(2), exec.Stats().SandboxesCreated)
}

func TestExecute_Concurrent(t *testing.T) {
	exec := New(nil)
	fn := newFunction("double", "number", "return n * 2;", numberParam("n"))

	var wg sync.WaitGroup
	results := make([]*function.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = exec.Execute(context.Background(), fn, map[string]any{"n": i}, nil)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.True(t, r.Success)
		assert.Equal(t, int64(i*2), r.Value)
	}
}

func TestExecute_StackOverflow(t *testing.T) {
	exec := New(nil, WithMaxCallStackSize(64))
	fn := newFunction("recurse", "number", "function f(k) {\n  return f(k + 1);\n}\nreturn f(0);")

	result := exec.Execute(context.Background(), fn, nil, nil)
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
}

type panicky struct{}

func (panicky) Name() capability.Name { return capability.Utils }

func (panicky) Build(env *capability.Env) (*goja.Object, error) {
	obj := env.Runtime.NewObject()
	_ = obj.Set("boom", func(goja.FunctionCall) goja.Value {
		panic("kaboom")
	})
	return obj, nil
}

func TestExecute_HostPanicRecovered(t *testing.T) {
	exec := New(nil)
	fn := newFunction("explode", "any", "return utils.boom();")

	var result *function.Result
	require.NotPanics(t, func() {
		result = exec.Execute(context.Background(), fn, nil, capability.Set{panicky{}})
	})
	require.False(t, result.Success)
	assert.Equal(t, function.KindExecutionError, result.Error.Kind)
}

func TestHarden(t *testing.T) {
	vm := goja.New()
	require.NoError(t, harden(vm, 0))

	v, err := vm.RunString("typeof eval")
	require.NoError(t, err)
	assert.Equal(t, "undefined", v.String())

	for _, src := range []string{
		`Function("return 1")`,
		`new Function("return 1")`,
		`(function () {}).constructor("return 1")`,
		`(async function () {}).constructor("return 1")`,
	} {
		_, err := vm.RunString(src)
		assert.Error(t, err, src)
	}

	v, err = vm.RunString("(function () {}) instanceof Function")
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.True(t, StateCompleted.Terminal())
	assert.False(t, StateRunning.Terminal())
	assert.False(t, StateDisposed.Terminal())
}
