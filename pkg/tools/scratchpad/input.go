package scratchpad

import (
	"fmt"
	"strings"

	"github.com/entrhq/funcbox/pkg/agent/memory/notes"
	"github.com/entrhq/funcbox/pkg/agent/tools"
)

type tagsXML struct {
	Items []string `xml:"tag"`
}

func (t *tagsXML) toTags() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Items))
	for _, tag := range t.Items {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func unmarshalArgs(argsXML []byte, v interface{}) error {
	if err := tools.UnmarshalXMLWithFallback(argsXML, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func formatNotes(results []*notes.Note) string {
	if len(results) == 0 {
		return "No notes found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d note(s):\n", len(results))
	for i, note := range results {
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, note.ID, note.Title)
		if len(note.Tags) > 0 {
			fmt.Fprintf(&b, " (tags: %s)", strings.Join(note.Tags, ", "))
		}
		if note.Archived {
			b.WriteString(" [ARCHIVED]")
		}
		fmt.Fprintf(&b, "\n   %s\n", note.Content)
	}
	return b.String()
}

// All returns every note tool bound to manager.
func All(manager *notes.Manager) []tools.Tool {
	return []tools.Tool{
		NewAddNoteTool(manager),
		NewSearchNotesTool(manager),
		NewListNotesTool(manager),
		NewListTagsTool(manager),
		NewUpdateNoteTool(manager),
		NewArchiveNoteTool(manager),
		NewDeleteNoteTool(manager),
	}
}
