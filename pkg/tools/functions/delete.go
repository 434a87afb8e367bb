package functions

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// DeleteTool removes a custom function.
type DeleteTool struct {
	svc *service.Service
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(svc *service.Service) *DeleteTool {
	return &DeleteTool{svc: svc}
}

// Name returns the tool name.
func (t *DeleteTool) Name() string {
	return "delete_custom_function"
}

// Description returns the tool description.
func (t *DeleteTool) Description() string {
	return "Delete a custom function by name or ID. Deleting a function that does not exist is not an error."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *DeleteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Name or ID of the function to delete",
			},
		},
		[]string{"name"},
	)
}

// Execute deletes the function.
func (t *DeleteTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Name    string   `xml:"name"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", nil, fmt.Errorf("missing required parameter: name")
	}

	resp := t.svc.Delete(ctx, name)
	if !resp.Success {
		return "", nil, responseError(resp)
	}

	result := resp.Data.(service.DeleteResult)
	if !result.Deleted {
		return fmt.Sprintf("No custom function '%s' exists; nothing was deleted", name), map[string]interface{}{"deleted": false}, nil
	}
	return fmt.Sprintf("Custom function '%s' deleted", name), map[string]interface{}{
		"deleted":     true,
		"function_id": result.ID,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *DeleteTool) IsLoopBreaking() bool {
	return false
}
