// Package validate implements static vetting of custom function definitions
// and runtime validation of call arguments.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/capability"
	"github.com/entrhq/funcbox/pkg/function/script"
)

// Limits are the configurable thresholds of static validation.
type Limits struct {
	MinNameLength int `json:"min_name_length" yaml:"min_name_length"`
	MaxNameLength int `json:"max_name_length" yaml:"max_name_length"`
	MaxParameters int `json:"max_parameters" yaml:"max_parameters"` // soft: style warning above
	MaxLines      int `json:"max_lines" yaml:"max_lines"`           // soft: performance warning above
}

// DefaultLimits returns the default validation thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinNameLength: 3,
		MaxNameLength: 64,
		MaxParameters: 10,
		MaxLines:      100,
	}
}

// Validator checks candidate definitions. It is stateless apart from its
// configuration and safe for concurrent use.
type Validator struct {
	limits    Limits
	hostNames map[string]bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithLimits overrides the default thresholds. Zero fields keep defaults.
func WithLimits(l Limits) Option {
	return func(v *Validator) {
		if l.MinNameLength > 0 {
			v.limits.MinNameLength = l.MinNameLength
		}
		if l.MaxNameLength > 0 {
			v.limits.MaxNameLength = l.MaxNameLength
		}
		if l.MaxParameters > 0 {
			v.limits.MaxParameters = l.MaxParameters
		}
		if l.MaxLines > 0 {
			v.limits.MaxLines = l.MaxLines
		}
	}
}

// WithHostNames replaces the set of names exposed by the host capability
// namespace. Function names may not collide with them.
func WithHostNames(names ...string) Option {
	return func(v *Validator) {
		v.hostNames = make(map[string]bool, len(names))
		for _, n := range names {
			v.hostNames[n] = true
		}
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{limits: DefaultLimits()}
	WithHostNames(capability.Names()...)(v)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Limits returns the thresholds in effect.
func (v *Validator) Limits() Limits {
	return v.limits
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidateDefinition runs every static check over def and collects all
// issues. It never executes code and never touches storage.
func (v *Validator) ValidateDefinition(def *function.Definition) function.ValidationResult {
	result := function.NewValidationResult()
	if def == nil {
		result.AddError(function.Issue{Kind: function.IssueValidation, Message: "definition is required"})
		return result
	}

	v.checkNaming(def, &result)
	v.checkParameters(def, &result)
	v.checkReturnType(def, &result)

	if strings.TrimSpace(def.Code) == "" {
		// nothing left to parse or scan
		return result
	}

	parsed := v.checkSyntax(def, &result)
	v.checkSecurity(def, &result)
	if parsed {
		v.checkPerformance(def, &result)
	}
	return result
}

func (v *Validator) checkNaming(def *function.Definition, result *function.ValidationResult) {
	name := def.Name
	switch {
	case strings.TrimSpace(name) == "":
		result.AddError(function.Issue{
			Kind:       function.IssueNaming,
			Message:    "function name is required",
			Suggestion: "Use a descriptive camelCase name such as calculateTotal",
		})
	case !identifierRegex.MatchString(name):
		result.AddError(function.Issue{
			Kind:       function.IssueNaming,
			Message:    fmt.Sprintf("function name %q is not a valid identifier", name),
			Suggestion: "Use letters, digits, _ or $, and do not start with a digit",
		})
	}

	if n := len(name); n > 0 && n < v.limits.MinNameLength {
		result.AddError(function.Issue{
			Kind:    function.IssueNaming,
			Message: fmt.Sprintf("function name must be at least %d characters", v.limits.MinNameLength),
		})
	} else if n > v.limits.MaxNameLength {
		result.AddError(function.Issue{
			Kind:    function.IssueNaming,
			Message: fmt.Sprintf("function name must be at most %d characters", v.limits.MaxNameLength),
		})
	}

	if IsReserved(name) {
		result.AddError(function.Issue{
			Kind:       function.IssueNaming,
			Message:    fmt.Sprintf("%q is a reserved word", name),
			Suggestion: "Choose a name that is not a JavaScript keyword or built-in global",
		})
	}
	if v.hostNames[name] {
		result.AddError(function.Issue{
			Kind:       function.IssueConflict,
			Message:    fmt.Sprintf("%q conflicts with a host capability of the same name", name),
			Suggestion: "Rename the function; capability names are reserved inside the sandbox",
		})
	}

	if strings.TrimSpace(def.Code) == "" {
		result.AddError(function.Issue{
			Kind:    function.IssueSyntax,
			Message: "function code is empty",
		})
	}

	if strings.TrimSpace(def.Description) == "" {
		result.AddWarning(function.Issue{
			Kind:       function.IssueStyle,
			Message:    "function has no description",
			Suggestion: "Describe what the function does so it can be discovered later",
		})
	}
}

func (v *Validator) checkParameters(def *function.Definition, result *function.ValidationResult) {
	seen := make(map[string]bool, len(def.Parameters))
	for _, p := range def.Parameters {
		label := p.Name
		if label == "" {
			label = "(unnamed)"
		}

		switch {
		case !identifierRegex.MatchString(p.Name):
			result.AddError(function.Issue{
				Kind:    function.IssueNaming,
				Message: fmt.Sprintf("parameter name %q is not a valid identifier", p.Name),
			})
		case keywords[p.Name]:
			result.AddError(function.Issue{
				Kind:    function.IssueNaming,
				Message: fmt.Sprintf("parameter name %q is a reserved word", p.Name),
			})
		case v.hostNames[p.Name]:
			result.AddWarning(function.Issue{
				Kind:    function.IssueConflict,
				Message: fmt.Sprintf("parameter %q shadows the %s capability", p.Name, p.Name),
			})
		}

		if p.Name != "" {
			if seen[p.Name] {
				result.AddError(function.Issue{
					Kind:    function.IssueParameter,
					Message: fmt.Sprintf("duplicate parameter name %q", p.Name),
				})
			}
			seen[p.Name] = true
		}

		v.checkParameterType(p, label, result)

		if strings.TrimSpace(p.Description) == "" {
			result.AddWarning(function.Issue{
				Kind:    function.IssueStyle,
				Message: fmt.Sprintf("parameter %s has no description", label),
			})
		}
	}

	if len(def.Parameters) > v.limits.MaxParameters {
		result.AddWarning(function.Issue{
			Kind:       function.IssueStyle,
			Message:    fmt.Sprintf("function takes %d parameters (more than %d)", len(def.Parameters), v.limits.MaxParameters),
			Suggestion: "Group related parameters into a single object parameter",
		})
	}
}

func (v *Validator) checkParameterType(p function.Parameter, label string, result *function.ValidationResult) {
	if strings.TrimSpace(p.Type) == "" {
		result.AddError(function.Issue{
			Kind:       function.IssueType,
			Message:    fmt.Sprintf("parameter %s has no type", label),
			Suggestion: "Declare a type such as string, number, boolean, string[] or object",
		})
		return
	}
	t, err := ParseType(p.Type)
	if err != nil {
		result.AddError(function.Issue{
			Kind:    function.IssueType,
			Message: fmt.Sprintf("parameter %s has malformed type %q: %v", label, p.Type, err),
		})
		return
	}

	if !p.HasDefault() {
		return
	}
	if !p.Optional {
		result.AddWarning(function.Issue{
			Kind:       function.IssueStyle,
			Message:    fmt.Sprintf("parameter %s is required, so its default is never used", label),
			Suggestion: "Mark the parameter optional or remove the default",
		})
		return
	}
	if !t.Matches(p.Default) {
		result.AddError(function.Issue{
			Kind:    function.IssueType,
			Message: fmt.Sprintf("default value of parameter %s is %s, expected %s", label, TypeOf(p.Default), p.Type),
		})
	}
}

func (v *Validator) checkReturnType(def *function.Definition, result *function.ValidationResult) {
	if strings.TrimSpace(def.ReturnType) == "" {
		result.AddError(function.Issue{
			Kind:       function.IssueType,
			Message:    "return type is required",
			Suggestion: "Use void if the function returns nothing",
		})
		return
	}
	if _, err := ParseType(def.ReturnType); err != nil {
		result.AddError(function.Issue{
			Kind:    function.IssueType,
			Message: fmt.Sprintf("malformed return type %q: %v", def.ReturnType, err),
		})
	}
}

// CountLines reports the number of non-trivial lines in a body.
func CountLines(code string) int {
	return script.NonTrivialLines(code)
}
