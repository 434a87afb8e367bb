package functions

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
	"github.com/entrhq/funcbox/pkg/function/store"
)

// UpdateTool changes fields of an existing custom function.
type UpdateTool struct {
	svc *service.Service
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(svc *service.Service) *UpdateTool {
	return &UpdateTool{svc: svc}
}

// Name returns the tool name.
func (t *UpdateTool) Name() string {
	return "update_custom_function"
}

// Description returns the tool description.
func (t *UpdateTool) Description() string {
	return "Update an existing custom function by name or ID. Only the fields given are changed; the result is re-validated and the version is bumped."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *UpdateTool) Schema() map[string]interface{} {
	props := definitionProperties()
	props["name"] = map[string]interface{}{
		"type":        "string",
		"description": "Name or ID of the function to update",
	}
	props["new_name"] = map[string]interface{}{
		"type":        "string",
		"description": "New function name (optional)",
	}
	return tools.BaseToolSchema(props, []string{"name"})
}

// Execute applies the update.
func (t *UpdateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName     xml.Name       `xml:"arguments"`
		Name        string         `xml:"name"`
		NewName     *string        `xml:"new_name"`
		Description *string        `xml:"description"`
		Parameters  *parametersXML `xml:"parameters"`
		ReturnType  *string        `xml:"return_type"`
		Code        *string        `xml:"code"`
		Tags        *tagsXML       `xml:"tags"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return "", nil, fmt.Errorf("missing required parameter: name")
	}

	patch := store.Patch{
		Name:        trimmed(input.NewName),
		Description: trimmed(input.Description),
		ReturnType:  trimmed(input.ReturnType),
		Code:        trimmed(input.Code),
	}
	if input.Parameters != nil {
		params := input.Parameters.toParameters()
		patch.Parameters = &params
	}
	if input.Tags != nil {
		tags := input.Tags.toTags()
		patch.Tags = &tags
	}
	if patch.IsEmpty() {
		return "", nil, fmt.Errorf("nothing to update: provide at least one of new_name, description, parameters, return_type, code or tags")
	}

	resp := t.svc.Update(ctx, strings.TrimSpace(input.Name), patch)
	if !resp.Success {
		return "", nil, responseError(resp)
	}

	fn := resp.Data.(*function.Function)
	message := fmt.Sprintf("Custom function '%s' updated to version %d", fn.Name, fn.Metadata.Version) + formatWarnings(resp.Warnings)
	metadata := map[string]interface{}{
		"function_id": fn.ID,
		"version":     fn.Metadata.Version,
		"warnings":    len(resp.Warnings),
	}
	return message, metadata, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *UpdateTool) IsLoopBreaking() bool {
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
