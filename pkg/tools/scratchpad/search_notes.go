package scratchpad

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

// SearchNotesTool searches notes by text and/or tags.
type SearchNotesTool struct {
	manager *notes.Manager
}

// NewSearchNotesTool creates a new SearchNotesTool.
func NewSearchNotesTool(manager *notes.Manager) *SearchNotesTool {
	return &SearchNotesTool{manager: manager}
}

// Name returns the tool name.
func (t *SearchNotesTool) Name() string {
	return "search_notes"
}

// Description returns the tool description.
func (t *SearchNotesTool) Description() string {
	return "Search notes by title/content text and/or tags. Archived notes are included."
}

// Schema returns the JSON schema for the tool's input parameters.
func (t *SearchNotesTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Case-insensitive text to find in title or content",
			},
			"tags": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Notes must carry all of these tags",
			},
			"limit": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of notes to return (default: 50)",
			},
		},
		[]string{},
	)
}

// Execute searches for notes.
func (t *SearchNotesTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Query   string   `xml:"query"`
		Tags    *tagsXML `xml:"tags"`
		Limit   int      `xml:"limit"`
	}
	if err := unmarshalArgs(argsXML, &input); err != nil {
		return "", nil, err
	}

	query := strings.TrimSpace(input.Query)
	tags := input.Tags.toTags()
	results := t.manager.Search(notes.SearchOptions{
		Query:           query,
		Tags:            tags,
		IncludeArchived: true,
		Limit:           input.Limit,
	})

	return formatNotes(results), map[string]interface{}{
		"result_count": len(results),
		"query":        query,
		"tags":         tags,
	}, nil
}

// IsLoopBreaking returns false as this tool doesn't break the agent loop.
func (t *SearchNotesTool) IsLoopBreaking() bool {
	return false
}
