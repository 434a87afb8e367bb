package scratchpad

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// UpdateNoteTool updates existing notes.
type UpdateNoteTool struct {
	manager *notes.Manager
}

// NewUpdateNoteTool creates a new UpdateNoteTool.
func NewUpdateNoteTool(manager *notes.Manager) *UpdateNoteTool {
	return &UpdateNoteTool{manager: manager}
}

// Name returns the tool name.
func (t *UpdateNoteTool) Name() string {
	return "update_note"
}

// Description returns the tool description.
func (t *UpdateNoteTool) Description() string {
	return "Update a note's title, content and/or tags. Fields that are left out keep their value; given tags replace the old ones."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *UpdateNoteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "ID of the note to update",
			},
			"title": map[string]interface{}{
				"type":        "string",
				"description": "New title",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "New content",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Replacement tags; an empty <tags/> clears them",
			},
		},
		[]string{"id"},
	)
}

// Execute updates a note.
func (t *UpdateNoteTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		ID      string   `xml:"id"`
		Title   *string  `xml:"title"`
		Content *string  `xml:"content"`
		Tags    *tagsXML `xml:"tags"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return "", nil, fmt.Errorf("missing required parameter: id")
	}

	changes := notes.Changes{Title: input.Title, Content: input.Content}
	var changed []string
	if input.Title != nil {
		changed = append(changed, "title")
	}
	if input.Content != nil {
		changed = append(changed, "content")
	}
	if input.Tags != nil {
		tags := input.Tags.toTags()
		changes.Tags = &tags
		changed = append(changed, "tags")
	}
	if changes.IsEmpty() {
		return "", nil, fmt.Errorf("at least one of title, content or tags must be provided")
	}

	note, err := t.manager.Update(id, changes)
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Note %s updated (%s)", note.ID, strings.Join(changed, ", ")), map[string]interface{}{
		"note_id": note.ID,
		"changed": changed,
		"tags":    note.Tags,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *UpdateNoteTool) IsLoopBreaking() bool {
	return false
}
