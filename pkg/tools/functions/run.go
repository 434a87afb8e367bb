package functions

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/tools"
	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

// RunTool executes a custom function.
type RunTool struct {
	svc *service.Service
}

// NewRunTool creates a RunTool.
func NewRunTool(svc *service.Service) *RunTool {
	return &RunTool{svc: svc}
}

// Name returns the tool name.
func (t *RunTool) Name() string {
	return "run_custom_function"
}

// Description returns the tool description.
func (t *RunTool) Description() string {
	return "Run a stored custom function in the sandbox. Arguments are a JSON object keyed by parameter name; " +
		"the result is the function's JSON return value plus any console output."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *RunTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Name or ID of the function to run",
			},
			"args": map[string]interface{}{
				"type":        "object",
				"description": `JSON object of arguments, e.g. {"n": 21}`,
			},
		},
		[]string{"name"},
	)
}

// Execute runs the function.
func (t *RunTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Name    string   `xml:"name"`
		Args    string   `xml:"args"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", nil, fmt.Errorf("missing required parameter: name")
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(input.Args); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", nil, fmt.Errorf("args must be a JSON object: %w", err)
		}
	}

	resp := t.svc.Execute(ctx, name, args)
	result, _ := resp.Data.(*function.Result)
	if !resp.Success {
		err := responseError(resp)
		if result != nil && len(result.Logs) > 0 {
			err = fmt.Errorf("%w\n\nConsole output:\n%s", err, strings.Join(result.Logs, "\n"))
		}
		return "", nil, err
	}

	value, err := json.MarshalIndent(result.Value, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode result: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Result:\n%s", value)
	if len(result.Logs) > 0 {
		fmt.Fprintf(&b, "\n\nConsole output:\n%s", strings.Join(result.Logs, "\n"))
	}
	return b.String(), map[string]interface{}{
		"duration_ms": result.DurationMs,
		"log_lines":   len(result.Logs),
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *RunTool) IsLoopBreaking() bool {
	return false
}
