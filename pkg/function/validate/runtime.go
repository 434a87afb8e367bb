package validate

import (
	"fmt"
	"sort"

	"github.com/entrhq/funcbox/pkg/function"
)

// ValidateExecution checks call arguments against the declared parameters:
// required parameters must be present and non-null, and every provided
// value must match its declared type. Unknown argument names are warnings.
func ValidateExecution(def *function.Definition, args map[string]any) function.ValidationResult {
	result := function.NewValidationResult()
	if def == nil {
		result.AddError(function.Issue{Kind: function.IssueValidation, Message: "definition is required"})
		return result
	}

	for _, p := range def.Parameters {
		value, present := args[p.Name]
		if !present || value == nil {
			if !p.Optional {
				result.AddError(function.Issue{
					Kind:    function.IssueValidation,
					Message: fmt.Sprintf("missing required parameter %q (expected %s)", p.Name, p.Type),
				})
			}
			continue
		}

		t, err := ParseType(p.Type)
		if err != nil {
			result.AddWarning(function.Issue{
				Kind:    function.IssueValidation,
				Message: fmt.Sprintf("parameter %q has malformed type %q; value not checked", p.Name, p.Type),
			})
			continue
		}
		if !t.Matches(value) {
			result.AddError(function.Issue{
				Kind:    function.IssueValidation,
				Message: fmt.Sprintf("parameter %q expected %s but got %s", p.Name, p.Type, TypeOf(value)),
			})
		}
	}

	var unknown []string
	for name := range args {
		if _, ok := def.Parameter(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		result.AddWarning(function.Issue{
			Kind:    function.IssueValidation,
			Message: fmt.Sprintf("unknown argument %q is ignored", name),
		})
	}
	return result
}

// ApplyDefaults returns a copy of args with the defaults of omitted optional
// parameters filled in. The input map is not modified.
func ApplyDefaults(def *function.Definition, args map[string]any) map[string]any {
	out := make(map[string]any, len(args)+len(def.Parameters))
	for k, v := range args {
		out[k] = v
	}
	for _, p := range def.Parameters {
		if !p.Optional || !p.HasDefault() {
			continue
		}
		if v, ok := out[p.Name]; !ok || v == nil {
			out[p.Name] = p.Default
		}
	}
	return out
}
