package scratchpad

import (
	"context"
	"encoding/xml"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// ListNotesTool lists notes with optional filtering.
type ListNotesTool struct {
	manager *notes.Manager
}

// NewListNotesTool creates a new ListNotesTool.
func NewListNotesTool(manager *notes.Manager) *ListNotesTool {
	return &ListNotesTool{manager: manager}
}

// Name returns the tool name.
func (t *ListNotesTool) Name() string {
	return "list_notes"
}

// Description returns the tool description.
func (t *ListNotesTool) Description() string {
	return "List notes, most recently updated first, optionally filtered by tags. Archived notes are hidden unless include_archived is set."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *ListNotesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Notes must carry all of these tags",
			},
			"include_archived": map[string]interface{}{
				"type":        "boolean",
				"description": "Include archived notes (default: false)",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of notes to return (default: 10)",
			},
		},
		[]string{},
	)
}

// Execute lists notes.
func (t *ListNotesTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName         xml.Name `xml:"arguments"`
		Tags            *tagsXML `xml:"tags"`
		IncludeArchived bool     `xml:"include_archived"`
		Limit           int      `xml:"limit"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}
	if input.Limit <= 0 {
		input.Limit = 10
	}

	results := t.manager.List(notes.ListOptions{
		Tags:            input.Tags.toTags(),
		IncludeArchived: input.IncludeArchived,
		Limit:           input.Limit,
	})

	return formatNotes(results), map[string]interface{}{
		"note_count":       len(results),
		"include_archived": input.IncludeArchived,
		"limit":            input.Limit,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *ListNotesTool) IsLoopBreaking() bool {
	return false
}
