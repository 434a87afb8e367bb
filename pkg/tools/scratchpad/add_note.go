package scratchpad

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// AddNoteTool adds notes to the store.
type AddNoteTool struct {
	manager *notes.Manager
}

// NewAddNoteTool creates a new AddNoteTool.
func NewAddNoteTool(manager *notes.Manager) *AddNoteTool {
	return &AddNoteTool{manager: manager}
}

// Name returns the tool name.
func (t *AddNoteTool) Name() string {
	return "add_note"
}

// Description returns the tool description.
func (t *AddNoteTool) Description() string {
	return fmt.Sprintf("Add a note with a title (max %d chars), content (max %d chars) and up to %d tags. Custom functions can read it through the notes capability.",
		notes.MaxTitleLength, notes.MaxContentLength, notes.MaxTags)
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *AddNoteTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Short title for the note",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Note body",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"description": "Tags for the note, as <tags><tag>a</tag></tags>",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
		[]string{"title", "content"},
	)
}

// Execute adds the note.
func (t *AddNoteTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Title   string   `xml:"title"`
		Content string   `xml:"content"`
		Tags    *tagsXML `xml:"tags"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}

	note, err := t.manager.Add(input.Title, strings.TrimSpace(input.Content), input.Tags.toTags())
	if err != nil {
		return "", nil, err
	}

	return fmt.Sprintf("Note %s added: %s", note.ID, note.Title), map[string]interface{}{
		"note_id":     note.ID,
		"tags":        note.Tags,
		"total_notes": t.manager.Count(),
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *AddNoteTool) IsLoopBreaking() bool {
	return false
}
