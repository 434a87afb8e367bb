package functions

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// GetTool shows the full definition of a custom function.
type GetTool struct {
	svc *service.Service
}

// NewGetTool creates a GetTool.
func NewGetTool(svc *service.Service) *GetTool {
	return &GetTool{svc: svc}
}

// Name returns the tool name.
func (t *GetTool) Name() string {
	return "get_custom_function"
}

// Description returns the tool description.
func (t *GetTool) Description() string {
	return "Show a custom function's signature, description, code and usage by name or ID."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *GetTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Name or ID of the function",
			},
		},
		[]string{"name"},
	)
}

// Execute looks the function up.
func (t *GetTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Name    string   `xml:"name"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return "", nil, fmt.Errorf("missing required parameter: name")
	}

	resp := t.svc.Get(strings.TrimSpace(input.Name))
	if !resp.Success {
		return "", nil, responseError(resp)
	}
	fn := resp.Data.(*function.Function)
	return FormatFunction(fn), map[string]interface{}{
		"function_id": fn.ID,
		"version":     fn.Metadata.Version,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *GetTool) IsLoopBreaking() bool {
	return false
}
