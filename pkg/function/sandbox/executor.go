// Package sandbox runs compiled custom functions in isolated, budgeted
// JavaScript runtimes.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/compiler"
	"github.com/entrhq/funcbox/pkg/function/validate"
	"github.com/entrhq/funcbox/pkg/logging"
)

const (
	// DefaultTimeout is the wall-clock budget of one execution.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxCallStackSize bounds guest recursion.
	DefaultMaxCallStackSize = 1024
)

// errBudget is the interrupt value used when the wall-clock budget runs out.
var errBudget = errors.New("execution budget exceeded")

// UsageRecorder is notified after each successful execution.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, id string) error
}

// Stats counts executions since the executor was created.
type Stats struct {
	Executions       int64 `json:"executions"`
	Completed        int64 `json:"completed"`
	Failed           int64 `json:"failed"`
	TimedOut         int64 `json:"timedOut"`
	SandboxesCreated int64 `json:"sandboxesCreated"`
}

func (s Stats) String() string {
	return fmt.Sprintf("executions=%d completed=%d failed=%d timed_out=%d sandboxes=%d",
		s.Executions, s.Completed, s.Failed, s.TimedOut, s.SandboxesCreated)
}

// Executor runs functions. It is safe for concurrent use; every call gets
// its own runtime.
type Executor struct {
	compiler     *compiler.Compiler
	usage        UsageRecorder
	logger       *logging.Logger
	timeout      time.Duration
	maxCallStack int
	observe      func(id string, s State)

	executions atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	timedOut   atomic.Int64
	sandboxes  atomic.Int64
}

// Option configures an Executor.
type Option func(*Executor)

// WithTimeout sets the per-call wall-clock budget.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxCallStackSize bounds guest call depth.
func WithMaxCallStackSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxCallStack = n
		}
	}
}

// WithUsageRecorder records usage of successful executions.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(e *Executor) {
		e.usage = r
	}
}

// WithLogger sets the executor logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// WithStateObserver registers a callback that sees every state transition.
func WithStateObserver(fn func(id string, s State)) Option {
	return func(e *Executor) {
		e.observe = fn
	}
}

// New creates an executor that obtains artifacts from c.
func New(c *compiler.Compiler, opts ...Option) *Executor {
	if c == nil {
		c = compiler.New(nil)
	}
	e := &Executor{
		compiler:     c,
		timeout:      DefaultTimeout,
		maxCallStack: DefaultMaxCallStackSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the configured budget.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Stats returns the execution counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Executions:       e.executions.Load(),
		Completed:        e.completed.Load(),
		Failed:           e.failed.Load(),
		TimedOut:         e.timedOut.Load(),
		SandboxesCreated: e.sandboxes.Load(),
	}
}

// execution is the state of one call.
type execution struct {
	e     *Executor
	fn    *function.Function
	state State
	start time.Time

	mu   sync.Mutex
	logs []string
}

func (x *execution) enter(s State) {
	x.state = s
	if x.e.observe != nil {
		x.e.observe(x.fn.ID, s)
	}
}

func (x *execution) log(level, message string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.logs = append(x.logs, fmt.Sprintf("[%s] %s", level, message))
}

func (x *execution) finish(r *function.Result) *function.Result {
	r.DurationMs = time.Since(x.start).Milliseconds()
	x.mu.Lock()
	r.Logs = append([]string(nil), x.logs...)
	x.mu.Unlock()
	return r
}

func (x *execution) fail(kind function.ErrorKind, message string, issues []function.Issue) *function.Result {
	if kind == function.KindTimeout {
		x.enter(StateTimedOut)
		x.e.timedOut.Add(1)
	} else {
		x.enter(StateFailed)
		x.e.failed.Add(1)
	}
	x.e.logger.Warnf("Execution of %s failed (%s): %s", x.fn.Name, kind, message)
	return x.finish(function.Failed(kind, message, issues))
}

// Execute validates args against fn, compiles fn, and runs it in a fresh
// runtime with the capabilities from caps that the body references. Every
// outcome, including guest exceptions and timeouts, is reported in the
// returned Result; Execute never panics on guest behavior.
func (e *Executor) Execute(ctx context.Context, fn *function.Function, args map[string]any, caps capability.Set) *function.Result {
	e.executions.Add(1)
	if fn == nil {
		e.failed.Add(1)
		return function.Failed(function.KindNotFound, "no function given", nil)
	}

	x := &execution{e: e, fn: fn, start: time.Now()}
	defer x.enter(StateDisposed)

	x.enter(StateValidating)
	check := validate.ValidateExecution(&fn.Definition, args)
	if !check.Valid {
		verr := function.ValidationError(check)
		return x.fail(function.KindParameterValidation, verr.Message, check.Errors)
	}
	args = validate.ApplyDefaults(&fn.Definition, args)

	x.enter(StateCompiling)
	artifact, err := e.compiler.Compile(fn)
	if err != nil {
		return x.fail(function.KindOf(err), function.MessageOf(err), function.IssuesOf(err))
	}

	x.enter(StateInstantiating)
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vm, stringify, err := e.instantiate(runCtx, x, artifact, caps)
	if err != nil {
		return x.fail(function.KindExecutionError, err.Error(), nil)
	}

	x.enter(StateRunning)
	stop := context.AfterFunc(runCtx, func() {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			vm.Interrupt(errBudget)
			return
		}
		vm.Interrupt(runCtx.Err())
	})
	defer stop()

	value, err := e.run(vm, artifact, callArgs(vm, &fn.Definition, args), stringify)
	if err != nil {
		kind, message := classify(err, e.timeout)
		return x.fail(kind, message, nil)
	}

	x.enter(StateCompleted)
	e.completed.Add(1)
	if e.usage != nil {
		if err := e.usage.RecordUsage(ctx, fn.ID); err != nil {
			e.logger.Warnf("Failed to record usage of %s: %v", fn.Name, err)
		}
	}
	e.logger.Debugf("Executed %s in %s", fn.Name, time.Since(x.start))
	return x.finish(&function.Result{Success: true, Value: value})
}

// instantiate creates the isolated runtime for one call.
func (e *Executor) instantiate(ctx context.Context, x *execution, artifact *compiler.Artifact, caps capability.Set) (*goja.Runtime, goja.Callable, error) {
	vm := goja.New()
	e.sandboxes.Add(1)

	if err := harden(vm, e.maxCallStack); err != nil {
		return nil, nil, fmt.Errorf("prepare sandbox: %w", err)
	}

	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return nil, nil, fmt.Errorf("prepare sandbox: JSON.stringify is not available")
	}

	env := &capability.Env{Runtime: vm, Context: ctx, Log: x.log}
	if _, err := capability.Install(env, caps, artifact.Dependencies); err != nil {
		return nil, nil, err
	}
	return vm, stringify, nil
}

// run evaluates the program, calls the function and settles its result.
func (e *Executor) run(vm *goja.Runtime, artifact *compiler.Artifact, args []goja.Value, stringify goja.Callable) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host failure during execution: %v", r)
		}
	}()

	entry, err := vm.RunProgram(artifact.Program)
	if err != nil {
		return nil, err
	}
	call, ok := goja.AssertFunction(entry)
	if !ok {
		return nil, fmt.Errorf("%s did not evaluate to a function", artifact.EntryPoint)
	}

	ret, err := call(goja.Undefined(), args...)
	if err != nil {
		return nil, err
	}

	if obj, ok := ret.(*goja.Object); ok {
		if p, ok := obj.Export().(*goja.Promise); ok {
			switch p.State() {
			case goja.PromiseStateFulfilled:
				ret = p.Result()
			case goja.PromiseStateRejected:
				return nil, &rejection{value: p.Result()}
			default:
				return nil, fmt.Errorf("promise returned by %s never settled", artifact.EntryPoint)
			}
		}
	}

	return exportJSON(stringify, ret)
}

// rejection is a promise rejected with value.
type rejection struct {
	value goja.Value
}

func (r *rejection) Error() string {
	msg, _ := thrownMessage(r.value)
	return msg
}

func callArgs(vm *goja.Runtime, def *function.Definition, args map[string]any) []goja.Value {
	out := make([]goja.Value, len(def.Parameters))
	for i, p := range def.Parameters {
		v, ok := args[p.Name]
		if !ok {
			out[i] = goja.Undefined()
			continue
		}
		out[i] = capability.ToValue(vm, v)
	}
	return out
}

// classify maps a run error to the error taxonomy.
func classify(err error, budget time.Duration) (function.ErrorKind, string) {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if v, ok := interrupted.Value().(error); ok && errors.Is(v, errBudget) {
			return function.KindTimeout, fmt.Sprintf("execution exceeded %s", budget)
		}
		if v, ok := interrupted.Value().(error); ok && errors.Is(v, context.DeadlineExceeded) {
			return function.KindTimeout, "execution deadline exceeded"
		}
		return function.KindExecutionError, "execution cancelled"
	}

	var exception *goja.Exception
	if errors.As(err, &exception) {
		if msg, ok := thrownMessage(exception.Value()); ok {
			return function.KindExecutionError, msg
		}
		return function.KindExecutionError, "function threw without an error value"
	}

	var rejected *rejection
	if errors.As(err, &rejected) {
		if msg, ok := thrownMessage(rejected.value); ok {
			return function.KindExecutionError, msg
		}
		return function.KindExecutionError, "promise rejected without an error value"
	}

	return function.KindExecutionError, strings.TrimSpace(err.Error())
}
