package functions

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// ValidateTool checks a definition without storing it.
type ValidateTool struct {
	svc *service.Service
}

// NewValidateTool creates a ValidateTool.
func NewValidateTool(svc *service.Service) *ValidateTool {
	return &ValidateTool{svc: svc}
}

// Name returns the tool name.
func (t *ValidateTool) Name() string {
	return "validate_custom_function"
}

// Description returns the tool description.
func (t *ValidateTool) Description() string {
	return "Check a custom function definition for syntax, security, naming and type problems without storing it."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ValidateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(definitionProperties(), []string{"name", "code"})
}

// Execute validates the definition. An invalid definition is reported in
// the output, not as an error.
func (t *ValidateTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		definitionInput
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}

	resp := t.svc.Validate(input.definition())
	metadata := map[string]interface{}{
		"valid":    resp.Success,
		"errors":   len(resp.Issues),
		"warnings": len(resp.Warnings),
	}

	if resp.Success {
		return "Definition is valid." + formatWarnings(resp.Warnings), metadata, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Definition is invalid (%d error(s)):", len(resp.Issues))
	for _, issue := range resp.Issues {
		b.WriteString("\n" + formatIssue(issue))
	}
	b.WriteString(formatWarnings(resp.Warnings))
	return b.String(), metadata, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *ValidateTool) IsLoopBreaking() bool {
	return false
}

// All returns every custom function tool backed by svc.
func All(svc *service.Service, createdBy string) []tools.Tool {
	return []tools.Tool{
		NewCreateTool(svc, createdBy),
		NewUpdateTool(svc),
		NewDeleteTool(svc),
		NewGetTool(svc),
		NewListTool(svc),
		NewRunTool(svc),
		NewValidateTool(svc),
	}
}
