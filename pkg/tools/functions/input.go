package functions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// parameterXML is one <parameter> element:
//
//	<parameter name="n" type="number" optional="true" default="2">what n is</parameter>
type parameterXML struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Optional    bool   `xml:"optional,attr"`
	Default     string `xml:"default,attr"`
	Description string `xml:",chardata"`
}

type parametersXML struct {
	Items []parameterXML `xml:"parameter"`
}

type tagsXML struct {
	Items []string `xml:"tag"`
}

func (p *parametersXML) toParameters() []function.Parameter {
	if p == nil {
		return nil
	}
	out := make([]function.Parameter, 0, len(p.Items))
	for _, item := range p.Items {
		out = append(out, function.Parameter{
			Name:        strings.TrimSpace(item.Name),
			Type:        strings.TrimSpace(item.Type),
			Description: strings.TrimSpace(item.Description),
			Optional:    item.Optional,
			Default:     parseDefault(item.Default),
		})
	}
	return out
}

func (t *tagsXML) toTags() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Items))
	for _, tag := range t.Items {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// parseDefault reads a default as JSON, falling back to the raw string.
func parseDefault(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// definitionInput is shared by create and validate.
type definitionInput struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description"`
	Parameters  *parametersXML `xml:"parameters"`
	ReturnType  string         `xml:"return_type"`
	Code        string         `xml:"code"`
	Tags        *tagsXML       `xml:"tags"`
}

func (in definitionInput) definition() function.Definition {
	return function.Definition{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Parameters:  in.Parameters.toParameters(),
		ReturnType:  strings.TrimSpace(in.ReturnType),
		Code:        strings.TrimSpace(in.Code),
		Tags:        in.Tags.toTags(),
	}
}

func unmarshalArgs(argsXML []byte, v interface{}) error {
	if err := tools.UnmarshalXMLWithFallback(argsXML, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// responseError turns a failed response into an error listing every issue.
func responseError(resp *service.Response) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", resp.Error, resp.Message)
	if len(resp.Issues) > 1 {
		b.WriteString("\nIssues:")
		for _, issue := range resp.Issues {
			b.WriteString("\n" + formatIssue(issue))
		}
	} else if len(resp.Issues) == 1 && resp.Issues[0].Suggestion != "" {
		b.WriteString("\nSuggestion: " + resp.Issues[0].Suggestion)
	}
	return fmt.Errorf("%s", b.String())
}

func formatIssue(issue function.Issue) string {
	line := fmt.Sprintf("- [%s] %s", issue.Kind, issue.String())
	if issue.Suggestion != "" {
		line += " (" + issue.Suggestion + ")"
	}
	return line
}

func formatWarnings(warnings []function.Issue) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nWarnings:")
	for _, w := range warnings {
		b.WriteString("\n" + formatIssue(w))
	}
	return b.String()
}
