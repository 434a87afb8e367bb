package function

import (
	"strings"
	"time"
)

// Parameter describes a single named, typed function parameter.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`               // Identifier used inside the function body
	Type        string `json:"type" yaml:"type"`               // Declared type string (e.g. "number", "string[]")
	Description string `json:"description" yaml:"description"` // What the parameter is for
	Optional    bool   `json:"optional" yaml:"optional"`       // Whether callers may omit it
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// HasDefault reports whether the parameter declares a default value.
func (p Parameter) HasDefault() bool {
	return p.Default != nil
}

// Definition is the user-editable part of a custom function. It is what the
// validator inspects and what callers submit on create.
type Definition struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Parameters  []Parameter `json:"parameters" yaml:"parameters"`
	ReturnType  string      `json:"returnType" yaml:"returnType"`
	Code        string      `json:"code" yaml:"code"`
	Tags        []string    `json:"tags" yaml:"tags"`
}

// Parameter returns the parameter with the given name.
func (d *Definition) Parameter(name string) (Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ReturnsPromise reports whether the declared return type is a promise.
func (d *Definition) ReturnsPromise() bool {
	rt := strings.TrimSpace(d.ReturnType)
	return rt == "Promise" || strings.HasPrefix(rt, "Promise<")
}

// Metadata holds bookkeeping fields managed by the store.
type Metadata struct {
	CreatedAt  time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" yaml:"updatedAt"`
	CreatedBy  string     `json:"createdBy" yaml:"createdBy"`
	Version    int        `json:"version" yaml:"version"`
	UsageCount int        `json:"usageCount" yaml:"usageCount"`
	LastUsed   *time.Time `json:"lastUsed,omitempty" yaml:"lastUsed,omitempty"`
}

// Revision records one stored version of a function along with the
// validation warnings it was accepted with.
type Revision struct {
	Version     int       `json:"version" yaml:"version"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updatedAt"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Warnings    []Issue   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// MaxHistory bounds the number of revisions kept per function.
const MaxHistory = 20

// Function is a persisted custom function definition.
type Function struct {
	ID         string `json:"id" yaml:"id"`
	Definition `json:",inline" yaml:",inline"`
	Metadata   Metadata   `json:"metadata" yaml:"metadata"`
	History    []Revision `json:"history,omitempty" yaml:"history,omitempty"`
}

// Clone returns a deep copy of the function so callers can never mutate
// state owned by the store.
func (f *Function) Clone() *Function {
	if f == nil {
		return nil
	}
	c := *f
	c.Parameters = append([]Parameter(nil), f.Parameters...)
	c.Tags = append([]string(nil), f.Tags...)
	if f.Metadata.LastUsed != nil {
		t := *f.Metadata.LastUsed
		c.Metadata.LastUsed = &t
	}
	if f.History != nil {
		c.History = make([]Revision, len(f.History))
		for i, r := range f.History {
			r.Warnings = append([]Issue(nil), r.Warnings...)
			c.History[i] = r
		}
	}
	return &c
}

// HasTag checks if the function carries a tag (case-insensitive).
func (f *Function) HasTag(tag string) bool {
	normalized := NormalizeTag(tag)
	for _, t := range f.Tags {
		if t == normalized {
			return true
		}
	}
	return false
}

// Matches reports whether the query appears in the name, description or
// tags, case-insensitively.
func (f *Function) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.Description), q) {
		return true
	}
	for _, t := range f.Tags {
		if strings.Contains(t, q) {
			return true
		}
	}
	return false
}

// NameKey is the case-insensitive uniqueness key for a function name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeTag trims and lower-cases a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTags normalizes, de-duplicates and drops empty tags while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := NormalizeTag(tag)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Result is the outcome of a single execution.
type Result struct {
	Success    bool         `json:"success"`
	Value      any          `json:"value,omitempty"`
	Error      *ResultError `json:"error,omitempty"`
	DurationMs int64        `json:"durationMs"`
	Logs       []string     `json:"logs,omitempty"`
}

// ResultError is the structured failure carried by a Result.
type ResultError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Issues  []Issue   `json:"issues,omitempty"`
}

// Failed builds a failed Result.
func Failed(kind ErrorKind, message string, issues []Issue) *Result {
	return &Result{
		Success: false,
		Error:   &ResultError{Kind: kind, Message: message, Issues: issues},
	}
}
