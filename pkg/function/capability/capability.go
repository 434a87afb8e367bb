// Package capability defines the closed set of host services a sandboxed
// function may call and installs them into a goja runtime.
package capability

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dop251/goja"
)

// Env is what a capability sees of the execution it is installed into.
type Env struct {
	Runtime *goja.Runtime
	Context context.Context

	// Log receives console output. It may be nil.
	Log func(level, message string)
}

// Capability is one member of the namespace.
type Capability interface {
	Name() Name
	// Build creates the guest-facing object for one execution. Objects are
	// never shared between executions.
	Build(env *Env) (*goja.Object, error)
}

// Set is the collection of capabilities offered to an execution.
type Set []Capability

// Standard returns every capability, backed by the given note store. A nil
// store leaves notes out.
func Standard(notes NoteAccess) Set {
	set := Set{ConsoleCapability{}, UtilsCapability{}}
	if notes != nil {
		set = append(set, NotesCapability{Access: notes})
	}
	return set
}

// Get returns the capability with the given name.
func (s Set) Get(name Name) (Capability, bool) {
	for _, c := range s {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the sorted names in the set.
func (s Set) Names() []Name {
	out := make([]Name, 0, len(s))
	for _, c := range s {
		out = append(out, c.Name())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MissingError reports declared dependencies that were not provided.
type MissingError struct {
	Missing []Name
}

func (e *MissingError) Error() string {
	names := make([]string, len(e.Missing))
	for i, n := range e.Missing {
		names[i] = string(n)
	}
	return fmt.Sprintf("capabilities not available: %s", strings.Join(names, ", "))
}

// Install builds the capabilities named in deps from the set and defines
// each as a frozen, non-writable, non-configurable global. Capabilities in
// the set that are not declared are not installed. A declared dependency
// missing from the set fails with *MissingError before anything is
// installed.
func Install(env *Env, set Set, deps []Name) ([]Name, error) {
	var missing []Name
	var selected []Capability
	for _, dep := range deps {
		c, ok := set.Get(dep)
		if !ok {
			missing = append(missing, dep)
			continue
		}
		selected = append(selected, c)
	}
	if len(missing) > 0 {
		return nil, &MissingError{Missing: missing}
	}

	rt := env.Runtime
	freeze, ok := goja.AssertFunction(rt.Get("Object").ToObject(rt).Get("freeze"))
	if !ok {
		return nil, fmt.Errorf("Object.freeze is not available")
	}

	installed := make([]Name, 0, len(selected))
	for _, c := range selected {
		obj, err := c.Build(env)
		if err != nil {
			return nil, fmt.Errorf("build %s capability: %w", c.Name(), err)
		}
		if _, err := freeze(goja.Undefined(), obj); err != nil {
			return nil, fmt.Errorf("freeze %s capability: %w", c.Name(), err)
		}
		if err := rt.GlobalObject().DefineDataProperty(string(c.Name()), obj, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, fmt.Errorf("install %s capability: %w", c.Name(), err)
		}
		installed = append(installed, c.Name())
	}
	return installed, nil
}

// method adds a native method to obj. Errors returned by fn are thrown into
// the guest as JavaScript errors.
func method(rt *goja.Runtime, obj *goja.Object, name string, fn func(call goja.FunctionCall) (interface{}, error)) {
	_ = obj.Set(name, func(call goja.FunctionCall) goja.Value {
		result, err := fn(call)
		if err != nil {
			panic(rt.NewGoError(err))
		}
		return ToValue(rt, result)
	})
}
