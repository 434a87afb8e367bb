// Package store provides durable CRUD, versioning and backup/restore for
// custom function definitions.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/script"
	"github.com/entrhq/funcbox/pkg/function/validate"
	"github.com/entrhq/funcbox/pkg/logging"
)

// timeNow is the clock used for metadata timestamps.
var timeNow = time.Now

// Invalidator is notified when stored source may no longer match compiled
// artifacts.
type Invalidator interface {
	Invalidate(id string)
	ClearCache()
}

// Store is the authoritative set of custom function definitions.
//
// Writes are serialized. Each write builds the next state, persists it and
// only then makes it visible, so a failed write leaves the store unchanged.
// Reads observe a consistent state and return deep copies.
type Store struct {
	writeMu sync.Mutex

	mu    sync.RWMutex
	state *state

	persister   Persister
	validator   *validate.Validator
	invalidator Invalidator
	logger      *logging.Logger
}

// state is an immutable view of the stored functions. Writers copy it.
type state struct {
	byID   map[string]*function.Function
	byName map[string]string // name key -> id
}

func newState() *state {
	return &state{
		byID:   make(map[string]*function.Function),
		byName: make(map[string]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		byID:   make(map[string]*function.Function, len(s.byID)),
		byName: make(map[string]string, len(s.byName)),
	}
	for id, fn := range s.byID {
		c.byID[id] = fn
	}
	for k, id := range s.byName {
		c.byName[k] = id
	}
	return c
}

func (s *state) put(fn *function.Function) {
	if old, ok := s.byID[fn.ID]; ok {
		delete(s.byName, function.NameKey(old.Name))
	}
	s.byID[fn.ID] = fn
	s.byName[function.NameKey(fn.Name)] = fn.ID
}

func (s *state) remove(id string) {
	if old, ok := s.byID[id]; ok {
		delete(s.byName, function.NameKey(old.Name))
		delete(s.byID, id)
	}
}

// sorted returns the functions ordered by creation time, then id.
func (s *state) sorted() []*function.Function {
	out := make([]*function.Function, 0, len(s.byID))
	for _, fn := range s.byID {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Metadata.CreatedAt, out[j].Metadata.CreatedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *state) document() *Document {
	return &Document{Version: FormatVersion, Functions: s.sorted()}
}

// Option configures a Store.
type Option func(*Store)

// WithInvalidator registers the compiled-artifact cache to notify on
// update, delete and restore.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Store) {
		s.invalidator = inv
	}
}

// WithLogger sets the store logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open creates a store backed by persister and loads any existing data.
// Damaged data is reported as function.ErrStorageCorrupted rather than
// treated as an empty store.
func Open(ctx context.Context, persister Persister, validator *validate.Validator, opts ...Option) (*Store, error) {
	if validator == nil {
		validator = validate.New()
	}
	s := &Store{
		state:     newState(),
		persister: persister,
		validator: validator,
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := persister.Load(ctx)
	if err != nil {
		if function.KindOf(err) != function.KindStorageCorrupted {
			err = function.WrapError(function.KindStorageCorrupted, err, "load functions")
		}
		s.logger.Errorf("Failed to load functions: %v", err)
		return nil, err
	}
	if doc != nil {
		if issues := doc.Check(); len(issues) > 0 {
			e := function.NewError(function.KindStorageCorrupted, "%s", issues[0].Message)
			e.Issues = issues
			return nil, e
		}
		for _, fn := range doc.Functions {
			s.state.put(fn.Clone())
		}
	}
	s.logger.Infof("Loaded %d functions", len(s.state.byID))
	return s, nil
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// commit persists next and makes it the visible state. Callers hold writeMu.
func (s *Store) commit(ctx context.Context, next *state) error {
	if err := s.persister.Save(ctx, next.document()); err != nil {
		return fmt.Errorf("store: persist functions: %w", err)
	}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return nil
}

func (s *Store) invalidate(id string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(id)
	}
}

// now returns the current time in UTC, strictly after prev.
func now(prev time.Time) time.Time {
	t := timeNow().UTC()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}

// CreateOptions is a candidate definition plus its author.
type CreateOptions struct {
	function.Definition
	CreatedBy string `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
}

// Create validates and stores a new function. Validation failures return
// function.ErrValidationFailed carrying every issue; a name already in use
// returns function.ErrNameConflict. Validation warnings are attached to the
// first history revision.
func (s *Store) Create(ctx context.Context, opts CreateOptions) (*function.Function, error) {
	def := normalize(opts.Definition)

	result := s.validator.ValidateDefinition(&def)
	if !result.Valid {
		return nil, function.ValidationError(result)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	if id, taken := cur.byName[function.NameKey(def.Name)]; taken {
		return nil, function.NewError(function.KindNameConflict, "a function named %q already exists (%s)", cur.byID[id].Name, id)
	}

	created := timeNow().UTC()
	fn := &function.Function{
		ID:         uuid.NewString(),
		Definition: def,
		Metadata: function.Metadata{
			CreatedAt: created,
			UpdatedAt: created,
			CreatedBy: opts.CreatedBy,
			Version:   1,
		},
	}
	fn.History = []function.Revision{revision(fn, result.Warnings)}

	next := cur.clone()
	next.put(fn)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	s.logger.Infof("Created function %s (%s) with %d warnings", fn.Name, fn.ID, len(result.Warnings))
	return fn.Clone(), nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string               `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string               `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  *[]function.Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ReturnType  *string               `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Code        *string               `json:"code,omitempty" yaml:"code,omitempty"`
	Tags        *[]string             `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Parameters == nil &&
		p.ReturnType == nil && p.Code == nil && p.Tags == nil
}

func (p Patch) apply(def function.Definition) function.Definition {
	if p.Name != nil {
		def.Name = *p.Name
	}
	if p.Description != nil {
		def.Description = *p.Description
	}
	if p.Parameters != nil {
		def.Parameters = append([]function.Parameter(nil), (*p.Parameters)...)
	}
	if p.ReturnType != nil {
		def.ReturnType = *p.ReturnType
	}
	if p.Code != nil {
		def.Code = *p.Code
	}
	if p.Tags != nil {
		def.Tags = append([]string(nil), (*p.Tags)...)
	}
	return def
}

// Update applies patch to the function with the given id, re-validates the
// merged definition and stores it as the next version.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (*function.Function, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	existing, ok := cur.byID[id]
	if !ok {
		return nil, function.NewError(function.KindNotFound, "no function with id %s", id)
	}

	def := normalize(patch.apply(existing.Definition))
	if other, taken := cur.byName[function.NameKey(def.Name)]; taken && other != id {
		return nil, function.NewError(function.KindNameConflict, "a function named %q already exists (%s)", cur.byID[other].Name, other)
	}

	result := s.validator.ValidateDefinition(&def)
	if !result.Valid {
		return nil, function.ValidationError(result)
	}

	fn := existing.Clone()
	fn.Definition = def
	fn.Metadata.Version++
	fn.Metadata.UpdatedAt = now(existing.Metadata.UpdatedAt)
	fn.History = append(fn.History, revision(fn, result.Warnings))
	if n := len(fn.History); n > function.MaxHistory {
		fn.History = fn.History[n-function.MaxHistory:]
	}

	next := cur.clone()
	next.put(fn)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.invalidate(id)

	s.logger.Infof("Updated function %s (%s) to version %d", fn.Name, fn.ID, fn.Metadata.Version)
	return fn.Clone(), nil
}

// Get returns the function with the given id.
func (s *Store) Get(id string) (*function.Function, bool) {
	fn, ok := s.current().byID[id]
	if !ok {
		return nil, false
	}
	return fn.Clone(), true
}

// GetByName returns the function with the given name (case-insensitive).
func (s *Store) GetByName(name string) (*function.Function, bool) {
	cur := s.current()
	id, ok := cur.byName[function.NameKey(name)]
	if !ok {
		return nil, false
	}
	return cur.byID[id].Clone(), true
}

// Resolve looks a function up by id first, then by name.
func (s *Store) Resolve(idOrName string) (*function.Function, bool) {
	if fn, ok := s.Get(idOrName); ok {
		return fn, true
	}
	return s.GetByName(idOrName)
}

// Delete removes a function and invalidates its compiled artifact. It
// reports whether anything was removed; deleting an unknown id is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	fn, ok := cur.byID[id]
	if !ok {
		return false, nil
	}

	next := cur.clone()
	next.remove(id)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	s.invalidate(id)

	s.logger.Infof("Deleted function %s (%s)", fn.Name, id)
	return true, nil
}

// ListOptions filters List results. Zero values match everything.
type ListOptions struct {
	Tags        []string // any-of
	NamePattern string   // glob over the name, case-insensitive, e.g. "calc*"
	CreatedBy   string
	Limit       int
}

// List returns the functions matching opts, sorted by name.
func (s *Store) List(opts ListOptions) ([]*function.Function, error) {
	var pattern glob.Glob
	if opts.NamePattern != "" {
		g, err := glob.Compile(strings.ToLower(opts.NamePattern))
		if err != nil {
			return nil, fmt.Errorf("store: invalid name pattern %q: %w", opts.NamePattern, err)
		}
		pattern = g
	}

	var out []*function.Function
	for _, fn := range s.current().byID {
		if pattern != nil && !pattern.Match(function.NameKey(fn.Name)) {
			continue
		}
		if opts.CreatedBy != "" && fn.Metadata.CreatedBy != opts.CreatedBy {
			continue
		}
		if len(opts.Tags) > 0 && !hasAnyTag(fn, opts.Tags) {
			continue
		}
		out = append(out, fn.Clone())
	}
	sortByName(out)

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Search returns functions whose name, description or tags contain text,
// case-insensitively.
func (s *Store) Search(text string) []*function.Function {
	var out []*function.Function
	for _, fn := range s.current().byID {
		if fn.Matches(text) {
			out = append(out, fn.Clone())
		}
	}
	sortByName(out)
	return out
}

// GetByTags returns functions carrying any of the tags.
func (s *Store) GetByTags(tags []string) []*function.Function {
	if len(tags) == 0 {
		return nil
	}
	var out []*function.Function
	for _, fn := range s.current().byID {
		if hasAnyTag(fn, tags) {
			out = append(out, fn.Clone())
		}
	}
	sortByName(out)
	return out
}

// Count returns the number of stored functions.
func (s *Store) Count() int {
	return len(s.current().byID)
}

// RecordUsage increments the usage counter of a function and sets its
// last-used time. Unknown ids are ignored.
func (s *Store) RecordUsage(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current()
	existing, ok := cur.byID[id]
	if !ok {
		return nil
	}

	fn := existing.Clone()
	fn.Metadata.UsageCount++
	used := timeNow().UTC()
	fn.Metadata.LastUsed = &used

	next := cur.clone()
	next.put(fn)
	return s.commit(ctx, next)
}

// Stats aggregates usage over all stored functions.
type Stats struct {
	TotalFunctions   int     `json:"totalFunctions"`
	TotalUsage       int     `json:"totalUsage"`
	AverageUsage     float64 `json:"averageUsage"`
	MostUsedFunction string  `json:"mostUsedFunction,omitempty"`
}

// Stats returns usage statistics. MostUsedFunction is empty until some
// function has been used; ties go to the name that sorts first.
func (s *Store) Stats() Stats {
	fns := s.current().sorted()
	sortByName(fns)

	var stats Stats
	best := 0
	for _, fn := range fns {
		stats.TotalFunctions++
		stats.TotalUsage += fn.Metadata.UsageCount
		if fn.Metadata.UsageCount > best {
			best = fn.Metadata.UsageCount
			stats.MostUsedFunction = fn.Name
		}
	}
	if stats.TotalFunctions > 0 {
		stats.AverageUsage = float64(stats.TotalUsage) / float64(stats.TotalFunctions)
	}
	return stats
}

// Backup returns a deep copy of every stored function.
func (s *Store) Backup() *Document {
	doc := cloneDocument(s.current().document())
	exported := timeNow().UTC()
	doc.ExportedAt = &exported
	return doc
}

// Restore replaces the whole store with the contents of doc. The document
// shape and the required fields of every function are checked first; any
// problem aborts the restore and leaves the store untouched.
func (s *Store) Restore(ctx context.Context, doc *Document) error {
	if issues := doc.Check(); len(issues) > 0 {
		e := function.NewError(function.KindValidationFailed, "invalid backup: %s", issues[0].Message)
		e.Issues = issues
		return e
	}

	if issues := s.checkDefinitions(doc); len(issues) > 0 {
		e := function.NewError(function.KindValidationFailed, "invalid backup: %s", issues[0].Message)
		if n := len(issues) - 1; n > 0 {
			e.Message = fmt.Sprintf("%s (and %d more)", e.Message, n)
		}
		e.Issues = issues
		return e
	}

	next := newState()
	for _, fn := range doc.Functions {
		c := fn.Clone()
		c.Tags = function.NormalizeTags(c.Tags)
		next.put(c)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.commit(ctx, next); err != nil {
		return err
	}
	if s.invalidator != nil {
		s.invalidator.ClearCache()
	}

	s.logger.Infof("Restored %d functions", len(next.byID))
	return nil
}

// checkDefinitions runs the static validator over every record of doc, so a
// backup cannot bring in a definition Create would have refused.
func (s *Store) checkDefinitions(doc *Document) []function.Issue {
	var issues []function.Issue
	for i, fn := range doc.Functions {
		def := normalize(fn.Definition)
		result := s.validator.ValidateDefinition(&def)
		for _, issue := range result.Errors {
			issue.Message = fmt.Sprintf("function %d (%s): %s", i, fn.Name, issue.Message)
			issues = append(issues, issue)
		}
	}
	return issues
}

func normalize(def function.Definition) function.Definition {
	def.Name = strings.TrimSpace(def.Name)
	def.ReturnType = strings.TrimSpace(def.ReturnType)
	def.Tags = function.NormalizeTags(def.Tags)
	def.Parameters = append([]function.Parameter(nil), def.Parameters...)
	for i := range def.Parameters {
		def.Parameters[i].Name = strings.TrimSpace(def.Parameters[i].Name)
		def.Parameters[i].Type = strings.TrimSpace(def.Parameters[i].Type)
	}
	return def
}

func revision(fn *function.Function, warnings []function.Issue) function.Revision {
	return function.Revision{
		Version:     fn.Metadata.Version,
		UpdatedAt:   fn.Metadata.UpdatedAt,
		Fingerprint: script.Fingerprint(&fn.Definition),
		Warnings:    append([]function.Issue(nil), warnings...),
	}
}

func hasAnyTag(fn *function.Function, tags []string) bool {
	for _, t := range tags {
		if fn.HasTag(t) {
			return true
		}
	}
	return false
}

func sortByName(fns []*function.Function) {
	sort.Slice(fns, func(i, j int) bool {
		a, b := function.NameKey(fns[i].Name), function.NameKey(fns[j].Name)
		if a != b {
			return a < b
		}
		return fns[i].ID < fns[j].ID
	})
}
