// Package service exposes the custom function subsystem as a set of public
// operations returning structured responses.
package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/compiler"
	"github.com/entrhq/funcbox/pkg/function/sandbox"
	"github.com/entrhq/funcbox/pkg/function/store"
	"github.com/entrhq/funcbox/pkg/function/validate"
	"github.com/entrhq/funcbox/pkg/logging"
)

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config wires the subsystem together.
type Config struct {
	Persister    store.Persister
	Limits       validate.Limits
	Timeout      time.Duration
	MaxCallStack int
	Notes        capability.NoteAccess // nil leaves the notes capability out
	Logger       *logging.Logger
}

// Service owns the validator, store, compiler and executor.
type Service struct {
	validator *validate.Validator
	store     *store.Store
	compiler  *compiler.Compiler
	executor  *sandbox.Executor
	caps      capability.Set
	persister store.Persister
	logger    *logging.Logger
}

// New loads the store through cfg.Persister and builds the pipeline around it.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Persister == nil {
		cfg.Persister = store.NewMemoryPersister()
	}
	logger := cfg.Logger

	validator := validate.New(validate.WithLimits(cfg.Limits))
	comp := compiler.New(validator, compiler.WithLogger(logger.Named("compiler")))
	st, err := store.Open(ctx, cfg.Persister, validator,
		store.WithInvalidator(comp),
		store.WithLogger(logger.Named("store")),
	)
	if err != nil {
		return nil, err
	}
	exec := sandbox.New(comp,
		sandbox.WithTimeout(cfg.Timeout),
		sandbox.WithMaxCallStackSize(cfg.MaxCallStack),
		sandbox.WithUsageRecorder(st),
		sandbox.WithLogger(logger.Named("sandbox")),
	)

	return &Service{
		validator: validator,
		store:     st,
		compiler:  comp,
		executor:  exec,
		caps:      capability.Standard(cfg.Notes),
		persister: cfg.Persister,
		logger:    logger,
	}, nil
}

// NewPersister builds the persister for a storage backend.
func NewPersister(backend, path string) (store.Persister, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return store.NewFilePersister(path)
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		return store.NewSQLitePersister(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want %s or %s)", backend, BackendJSON, BackendSQLite)
	}
}

// Close releases the persister if it holds resources.
func (s *Service) Close() error {
	if c, ok := s.persister.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Store returns the underlying definition store.
func (s *Service) Store() *store.Store { return s.store }

// Capabilities returns the capability names available to executions.
func (s *Service) Capabilities() []capability.Name { return s.caps.Names() }

// RegisterRequest is the input of Register.
type RegisterRequest = store.CreateOptions

// Register validates and stores a new function. Warnings the definition was
// accepted with are returned alongside it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) *Response {
	fn, err := s.store.Create(ctx, req)
	if err != nil {
		return Fail(err)
	}
	resp := OK(fn)
	resp.Warnings = latestWarnings(fn)
	return resp
}

// Get looks a function up by id or name.
func (s *Service) Get(idOrName string) *Response {
	fn, err := s.resolve(idOrName)
	if err != nil {
		return Fail(err)
	}
	return OK(fn)
}

// ListRequest filters List.
type ListRequest = store.ListOptions

// List returns functions matching req, sorted by name.
func (s *Service) List(req ListRequest) *Response {
	fns, err := s.store.List(req)
	if err != nil {
		return Fail(function.WrapError(function.KindValidationFailed, err, "invalid list request"))
	}
	return OK(nonNil(fns))
}

// Search returns functions whose name, description or tags contain query.
func (s *Service) Search(query string) *Response {
	return OK(nonNil(s.store.Search(query)))
}

// FilterByTags returns functions carrying any of tags.
func (s *Service) FilterByTags(tags ...string) *Response {
	return OK(nonNil(s.store.GetByTags(tags)))
}

// Update applies patch to the function identified by id or name.
func (s *Service) Update(ctx context.Context, idOrName string, patch store.Patch) *Response {
	fn, err := s.resolve(idOrName)
	if err != nil {
		return Fail(err)
	}
	updated, err := s.store.Update(ctx, fn.ID, patch)
	if err != nil {
		return Fail(err)
	}
	resp := OK(updated)
	resp.Warnings = latestWarnings(updated)
	return resp
}

// DeleteResult reports whether Delete removed anything.
type DeleteResult struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id,omitempty"`
}

// Delete removes the function identified by id or name. Unknown functions
// are not an error; the result reports Deleted=false.
func (s *Service) Delete(ctx context.Context, idOrName string) *Response {
	id := idOrName
	if fn, ok := s.store.Resolve(idOrName); ok {
		id = fn.ID
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return Fail(err)
	}
	if !deleted {
		return OK(DeleteResult{Deleted: false})
	}
	return OK(DeleteResult{Deleted: true, ID: id})
}

// Execute runs the function identified by id or name with args.
func (s *Service) Execute(ctx context.Context, idOrName string, args map[string]any) *Response {
	fn, err := s.resolve(idOrName)
	if err != nil {
		return Fail(err)
	}
	result := s.executor.Execute(ctx, fn, args, s.caps)
	if result.Success {
		return OK(result)
	}
	return &Response{
		Success: false,
		Data:    result,
		Error:   result.Error.Kind,
		Message: result.Error.Message,
		Issues:  result.Error.Issues,
	}
}

// Validate checks a definition without storing it. The response succeeds
// only when the definition is valid; the full result is always in Data.
func (s *Service) Validate(def function.Definition) *Response {
	result := s.validator.ValidateDefinition(&def)
	if result.Valid {
		resp := OK(result)
		resp.Warnings = result.Warnings
		return resp
	}
	resp := Fail(function.ValidationError(result))
	resp.Data = result
	resp.Warnings = result.Warnings
	return resp
}

// Stats aggregates counters from every component.
type Stats struct {
	Store    store.Stats    `json:"store"`
	Compiler compiler.Stats `json:"compiler"`
	Executor sandbox.Stats  `json:"executor"`
}

// Stats returns usage and runtime statistics.
func (s *Service) Stats() *Response {
	return OK(Stats{
		Store:    s.store.Stats(),
		Compiler: s.compiler.Stats(),
		Executor: s.executor.Stats(),
	})
}

// Export returns a backup document of every function.
func (s *Service) Export() *Response {
	return OK(s.store.Backup())
}

// ExportFile writes a backup to path, as YAML when the extension says so and
// JSON otherwise.
func (s *Service) ExportFile(path string) *Response {
	doc := s.store.Backup()
	data, err := store.Marshal(doc, store.EncodingForPath(path))
	if err != nil {
		return Fail(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Fail(fmt.Errorf("write export: %w", err))
	}
	s.logger.Infof("Exported %d functions to %s", len(doc.Functions), path)
	return OK(map[string]any{"path": path, "count": len(doc.Functions)})
}

// Import replaces every stored function with the contents of doc.
func (s *Service) Import(ctx context.Context, doc *store.Document) *Response {
	if err := s.store.Restore(ctx, doc); err != nil {
		return Fail(err)
	}
	return OK(map[string]any{"count": len(doc.Functions)})
}

// ImportFile reads a backup written by ExportFile and restores it.
func (s *Service) ImportFile(ctx context.Context, path string) *Response {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fail(function.WrapError(function.KindNotFound, err, "read import file"))
	}
	doc, err := store.Unmarshal(data, store.EncodingForPath(path))
	if err != nil {
		return Fail(function.WrapError(function.KindValidationFailed, err, "parse import file"))
	}
	return s.Import(ctx, doc)
}

func (s *Service) resolve(idOrName string) (*function.Function, error) {
	fn, ok := s.store.Resolve(idOrName)
	if !ok {
		return nil, function.NewError(function.KindNotFound, "no function with id or name %q", idOrName)
	}
	return fn, nil
}

func latestWarnings(fn *function.Function) []function.Issue {
	if len(fn.History) == 0 {
		return nil
	}
	return fn.History[len(fn.History)-1].Warnings
}

func nonNil(fns []*function.Function) []*function.Function {
	if fns == nil {
		return []*function.Function{}
	}
	return fns
}
