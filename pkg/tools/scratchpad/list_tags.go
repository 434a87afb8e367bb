package scratchpad

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// ListTagsTool lists the tags in use.
type ListTagsTool struct {
	manager *notes.Manager
}

// NewListTagsTool creates a new ListTagsTool.
func NewListTagsTool(manager *notes.Manager) *ListTagsTool {
	return &ListTagsTool{manager: manager}
}

// Name returns the tool name.
func (t *ListTagsTool) Name() string {
	return "list_tags"
}

// Description returns the tool description.
func (t *ListTagsTool) Description() string {
	return "List every tag used by active notes, sorted alphabetically."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ListTagsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, []string{})
}

// Execute lists tags.
func (t *ListTagsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
	}
	if len(argsXML) > 0 {
		if err := unmarshalArgs(argsXML, &input); err != nil {
			return "", nil, err
		}
	}

	tags := t.manager.ListTags()
	if len(tags) == 0 {
		return "No tags in use.", map[string]interface{}{"tag_count": 0}, nil
	}
	return fmt.Sprintf("Tags in use (%d): %s", len(tags), strings.Join(tags, ", ")), map[string]interface{}{
		"tag_count": len(tags),
		"tags":      tags,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *ListTagsTool) IsLoopBreaking() bool {
	return false
}
