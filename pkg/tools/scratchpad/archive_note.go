package scratchpad

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// ArchiveNoteTool hides notes without deleting them.
type ArchiveNoteTool struct {
	manager *notes.Manager
}

// NewArchiveNoteTool creates a new ArchiveNoteTool.
func NewArchiveNoteTool(manager *notes.Manager) *ArchiveNoteTool {
	return &ArchiveNoteTool{manager: manager}
}

// Name returns the tool name.
func (t *ArchiveNoteTool) Name() string {
	return "archive_note"
}

// Description returns the tool description.
func (t *ArchiveNoteTool) Description() string {
	return "Archive a note. Archived notes stay searchable but are hidden from list_notes and from notes.list in custom functions."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ArchiveNoteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the note to archive",
			},
		},
		[]string{"id"},
	)
}

// Execute archives a note.
func (t *ArchiveNoteTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
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

	if _, err := t.manager.Archive(id); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Note %s archived", id), map[string]interface{}{
		"note_id":     id,
		"total_notes": t.manager.Count(),
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *ArchiveNoteTool) IsLoopBreaking() bool {
	return false
}
