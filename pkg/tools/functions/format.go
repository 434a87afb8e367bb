package functions

import (
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/function"
)

// Signature renders a function as name(a: T, b?: U): R.
func Signature(fn *function.Function) string {
	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		opt := ""
		if p.Optional {
			opt = "?"
		}
		params[i] = fmt.Sprintf("%s%s: %s", p.Name, opt, p.Type)
	}
	return fmt.Sprintf("%s(%s): %s", fn.Name, strings.Join(params, ", "), fn.ReturnType)
}

func summaryLine(fn *function.Function) string {
	line := fmt.Sprintf("- **%s**", Signature(fn))
	if fn.Description != "" {
		line += ": " + fn.Description
	}
	if len(fn.Tags) > 0 {
		line += fmt.Sprintf(" [%s]", strings.Join(fn.Tags, ", "))
	}
	return line
}

// FormatFunctionsList creates a formatted list of available custom functions
// for inclusion in a system prompt.
func FormatFunctionsList(fns []*function.Function) string {
	if len(fns) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("## Available Custom Functions\n\n")
	builder.WriteString("The following custom functions are currently available:\n\n")

	for _, fn := range fns {
		builder.WriteString(summaryLine(fn))
		builder.WriteString("\n")
	}

	builder.WriteString("\nUse get_custom_function to see a function's code, and run_custom_function to execute one with JSON arguments.")
	return builder.String()
}

// FormatFunction renders one function in full.
func FormatFunction(fn *function.Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", Signature(fn))
	if fn.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", fn.Description)
	}
	fmt.Fprintf(&b, "ID: %s\nVersion: %d\nUsage: %d\n", fn.ID, fn.Metadata.Version, fn.Metadata.UsageCount)
	if len(fn.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(fn.Tags, ", "))
	}
	if len(fn.Parameters) > 0 {
		b.WriteString("\nParameters:\n")
		for _, p := range fn.Parameters {
			fmt.Fprintf(&b, "- %s (%s)", p.Name, p.Type)
			if p.Optional {
				b.WriteString(" optional")
			}
			if p.HasDefault() {
				fmt.Fprintf(&b, " default=%v", p.Default)
			}
			if p.Description != "" {
				b.WriteString(": " + p.Description)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\n```javascript\n%s\n```", fn.Code)
	return b.String()
}
