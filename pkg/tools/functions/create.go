package functions

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// CreateTool stores a new custom function.
type CreateTool struct {
	svc       *service.Service
	createdBy string
}

// NewCreateTool creates a CreateTool. createdBy is recorded on new functions.
func NewCreateTool(svc *service.Service, createdBy string) *CreateTool {
	return &CreateTool{svc: svc, createdBy: createdBy}
}

// Name returns the tool name.
func (t *CreateTool) Name() string {
	return "create_custom_function"
}

// Description returns the tool description.
func (t *CreateTool) Description() string {
	return "Create a reusable JavaScript custom function. The body is validated for syntax, security and naming before it is stored; " +
		"it may call the notes, console and utils capabilities."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *CreateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(definitionProperties(), []string{"name", "return_type", "code"})
}

func definitionProperties() map[string]interface{} {
	return map[string]interface{}{
		"name": map[string]interface{}{
			"type":        "string",
			"description": "Function name, a valid identifier (3-64 characters)",
		},
		"description": map[string]interface{}{
			"type":        "string",
			"description": "What the function does",
		},
		"parameters": map[string]interface{}{
			"type":        "array",
			"description": `Parameters as <parameter name="n" type="number" optional="false" default="JSON">description</parameter> elements`,
		},
		"return_type": map[string]interface{}{
			"type":        "string",
			"description": "Declared return type, e.g. number, string[], Promise<object>",
		},
		"code": map[string]interface{}{
			"type":        "string",
			"description": "JavaScript function body; parameters are in scope by name",
		},
		"tags": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Tags for organizing functions",
		},
	}
}

// Execute creates the function.
func (t *CreateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		definitionInput
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	if input.Name == "" {
		return "", nil, fmt.Errorf("missing required parameter: name")
	}
	if input.Code == "" {
		return "", nil, fmt.Errorf("missing required parameter: code")
	}

	resp := t.svc.Register(ctx, service.RegisterRequest{
		Definition: input.definition(),
		CreatedBy:  t.createdBy,
	})
	if !resp.Success {
		return "", nil, responseError(resp)
	}

	fn := resp.Data.(*function.Function)
	message := fmt.Sprintf("Custom function '%s' created with ID: %s", fn.Name, fn.ID) + formatWarnings(resp.Warnings)
	metadata := map[string]interface{}{
		"function_id": fn.ID,
		"version":     fn.Metadata.Version,
		"warnings":    len(resp.Warnings),
	}
	return message, metadata, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *CreateTool) IsLoopBreaking() bool {
	return false
}
