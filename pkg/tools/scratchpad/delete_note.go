package scratchpad

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// DeleteNoteTool removes notes.
type DeleteNoteTool struct {
	manager *notes.Manager
}

// NewDeleteNoteTool creates a new DeleteNoteTool.
func NewDeleteNoteTool(manager *notes.Manager) *DeleteNoteTool {
	return &DeleteNoteTool{manager: manager}
}

// Name returns the tool name.
func (t *DeleteNoteTool) Name() string {
	return "delete_note"
}

// Description returns the tool description.
func (t *DeleteNoteTool) Description() string {
	return "Permanently delete a note. Prefer archive_note when the note may be useful later."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *DeleteNoteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the note to delete",
			},
		},
		[]string{"id"},
	)
}

// Execute deletes a note.
func (t *DeleteNoteTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		ID      string   `xml:"id"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return "", nil, fmt.Errorf("missing required parameter: id")
	}

	if !t.manager.Delete(id) {
		return "", nil, fmt.Errorf("%w: %s", notes.ErrNotFound, id)
	}
	return fmt.Sprintf("Note %s deleted", id), map[string]interface{}{
		"note_id":     id,
		"total_notes": t.manager.Count(),
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *DeleteNoteTool) IsLoopBreaking() bool {
	return false
}
