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

// ListTool lists custom functions.
type ListTool struct {
	svc *service.Service
}

// NewListTool creates a ListTool.
func NewListTool(svc *service.Service) *ListTool {
	return &ListTool{svc: svc}
}

// Name returns the tool name.
func (t *ListTool) Name() string {
	return "list_custom_functions"
}

// Description returns the tool description.
func (t *ListTool) Description() string {
	return "List stored custom functions with their signatures. Filter by tag, by name pattern (glob, e.g. calc*) or by a search query."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ListTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"tag": map[string]interface{}{
				"type":        "string",
				"description": "Only functions with this tag",
			},
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Glob over function names",
			},
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Text to find in names, descriptions and tags",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of functions to list",
			},
		},
		nil,
	)
}

// Execute lists matching functions.
func (t *ListTool) Execute(_ context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Tag     string   `xml:"tag"`
		Pattern string   `xml:"pattern"`
		Query   string   `xml:"query"`
		Limit   int      `xml:"limit"`
	}
	if len(strings.TrimSpace(string(argsXML))) > 0 {
		if err := unmarshalArgs(argsXML, &input); err != nil {
			return "", nil, err
		}
	}

	var resp *service.Response
	if q := strings.TrimSpace(input.Query); q != "" {
		resp = t.svc.Search(q)
	} else {
		req := service.ListRequest{NamePattern: strings.TrimSpace(input.Pattern), Limit: input.Limit}
		if tag := strings.TrimSpace(input.Tag); tag != "" {
			req.Tags = []string{tag}
		}
		resp = t.svc.List(req)
	}
	if !resp.Success {
		return "", nil, responseError(resp)
	}

	fns := resp.Data.([]*function.Function)
	if len(fns) == 0 {
		return "No custom functions found.", map[string]interface{}{"count": 0}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d custom function(s):\n\n", len(fns))
	for _, fn := range fns {
		b.WriteString(summaryLine(fn))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), map[string]interface{}{"count": len(fns)}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *ListTool) IsLoopBreaking() bool {
	return false
}
