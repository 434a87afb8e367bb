// Package compiler turns validated function definitions into executable
// artifacts and caches them by content fingerprint.
package compiler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/sync/singleflight"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/script"
	"github.com/entrhq/funcbox/pkg/function/validate"
	"github.com/entrhq/funcbox/pkg/logging"
)

// Artifact is the compiled form of one version of a definition. Artifacts
// are immutable and may be shared by concurrent executions; each execution
// runs the program in its own runtime.
type Artifact struct {
	DefinitionID string
	Fingerprint  string
	Program      *goja.Program
	Source       string // lowered source the program was compiled from
	EntryPoint   string
	Async        bool
	Dependencies []capability.Name // capabilities referenced by the body, sorted
	CompiledAt   time.Time
}

// DependsOn reports whether the artifact references the capability.
func (a *Artifact) DependsOn(name capability.Name) bool {
	for _, d := range a.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}

// Stats reports cache activity.
type Stats struct {
	CompiledFunctions int64 `json:"compiledFunctions"` // compilations performed
	CacheSize         int   `json:"cacheSize"`         // artifacts currently cached
}

// Compiler owns an artifact cache keyed by definition id. Each entry is only
// valid for the fingerprint it was compiled from.
type Compiler struct {
	validator *validate.Validator
	logger    *logging.Logger

	mu    sync.RWMutex
	cache map[string]*Artifact

	group    singleflight.Group
	compiled atomic.Int64
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the compiler logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a compiler with an empty cache.
func New(validator *validate.Validator, opts ...Option) *Compiler {
	if validator == nil {
		validator = validate.New()
	}
	c := &Compiler{
		validator: validator,
		cache:     make(map[string]*Artifact),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile returns the artifact for fn's current source, compiling it on a
// cache miss. The definition is re-validated before compiling; a failure
// returns function.ErrCompilationRejected with the issues and caches
// nothing. Concurrent calls for the same definition and fingerprint share
// one compilation.
func (c *Compiler) Compile(fn *function.Function) (*Artifact, error) {
	if fn == nil {
		return nil, function.NewError(function.KindCompilationRejected, "no definition given")
	}
	fingerprint := script.Fingerprint(&fn.Definition)
	if a := c.lookup(fn.ID, fingerprint); a != nil {
		return a, nil
	}

	key := fn.ID + "@" + fingerprint
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// another caller may have finished while we queued
		if a := c.lookup(fn.ID, fingerprint); a != nil {
			return a, nil
		}
		a, err := c.compile(fn, fingerprint)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[fn.ID] = a
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artifact), nil
}

func (c *Compiler) lookup(id, fingerprint string) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, ok := c.cache[id]; ok && a.Fingerprint == fingerprint {
		return a
	}
	return nil
}

func (c *Compiler) compile(fn *function.Function, fingerprint string) (*Artifact, error) {
	result := c.validator.ValidateDefinition(&fn.Definition)
	if !result.Valid {
		e := function.ValidationError(result)
		e.Kind = function.KindCompilationRejected
		c.logger.Warnf("Rejected compilation of %s: %s", fn.Name, e.Message)
		return nil, e
	}

	lowered := script.Lower(&fn.Definition)
	program, err := goja.Compile(validate.SourceName, lowered.Source, true)
	if err != nil {
		return nil, function.WrapError(function.KindCompilationRejected, err, "compile %s", fn.Name)
	}

	var deps []capability.Name
	for _, name := range script.References(lowered.Source, capability.Names()) {
		deps = append(deps, capability.Name(name))
	}

	c.compiled.Add(1)
	c.logger.Debugf("Compiled %s (%s) fingerprint=%.12s deps=%v", fn.Name, fn.ID, fingerprint, deps)

	return &Artifact{
		DefinitionID: fn.ID,
		Fingerprint:  fingerprint,
		Program:      program,
		Source:       lowered.Source,
		EntryPoint:   lowered.EntryPoint,
		Async:        lowered.Async,
		Dependencies: deps,
		CompiledAt:   time.Now(),
	}, nil
}

// Invalidate drops the cached artifact of one definition.
func (c *Compiler) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, id)
}

// ClearCache drops every cached artifact.
func (c *Compiler) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*Artifact)
	c.logger.Debugf("Cleared artifact cache")
}

// Stats returns cache statistics.
func (c *Compiler) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		CompiledFunctions: c.compiled.Load(),
		CacheSize:         len(c.cache),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("compiled=%d cached=%d", s.CompiledFunctions, s.CacheSize)
}
