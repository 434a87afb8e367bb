package function

import "fmt"

// IssueKind identifies which check produced an Issue.
type IssueKind string

const (
	IssueSyntax      IssueKind = "syntax"
	IssueSecurity    IssueKind = "security"
	IssueNaming      IssueKind = "naming"
	IssueConflict    IssueKind = "conflict"
	IssueType        IssueKind = "type"
	IssueParameter   IssueKind = "parameter"
	IssueStyle       IssueKind = "style"
	IssuePerformance IssueKind = "performance"
	IssueValidation  IssueKind = "validation"
)

// Issue is a single validation finding.
type Issue struct {
	Kind       IssueKind `json:"kind" yaml:"kind"`
	Message    string    `json:"message" yaml:"message"`
	Line       int       `json:"line,omitempty" yaml:"line,omitempty"`
	Column     int       `json:"column,omitempty" yaml:"column,omitempty"`
	Suggestion string    `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// String renders the issue the way it is shown to users,
// e.g. "Line 3: use of eval() is not permitted".
func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("Line %d: %s", i.Line, i.Message)
	}
	return i.Message
}

// ValidationResult collects every error and warning found for a candidate.
type ValidationResult struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// NewValidationResult returns an empty, valid result.
func NewValidationResult() ValidationResult {
	return ValidationResult{Valid: true, Errors: []Issue{}, Warnings: []Issue{}}
}

// AddError records a blocking issue.
func (r *ValidationResult) AddError(issue Issue) {
	r.Errors = append(r.Errors, issue)
	r.Valid = false
}

// AddWarning records an informational issue.
func (r *ValidationResult) AddWarning(issue Issue) {
	r.Warnings = append(r.Warnings, issue)
}

// Merge appends the issues of other into r.
func (r *ValidationResult) Merge(other ValidationResult) {
	for _, e := range other.Errors {
		r.AddError(e)
	}
	for _, w := range other.Warnings {
		r.AddWarning(w)
	}
}

// HasKind reports whether any error has the given kind.
func (r *ValidationResult) HasKind(kind IssueKind) bool {
	for _, e := range r.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
