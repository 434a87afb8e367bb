package notes

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// idCounter is used alongside the timestamp in GenerateID to guarantee
// uniqueness when multiple notes are created within the same nanosecond.
var idCounter atomic.Int64

const (
	// MaxTitleLength is the maximum number of characters allowed in a note title
	MaxTitleLength = 120

	// MaxContentLength is the maximum number of characters allowed in note content
	MaxContentLength = 4000

	// MaxTags is the maximum number of tags allowed per note
	MaxTags = 10

	// IDPrefix is the prefix used for all note IDs
	IDPrefix = "note_"
)

// Note is a single entry in the host note store.
type Note struct {
	ID        string
	Title     string
	Content   string
	Tags      []string
	Archived  bool // archived notes are hidden from list and search
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNote creates a new note. Returns an error if validation fails.
func NewNote(title, content string, tags []string) (*Note, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	if err := ValidateTags(tags); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Note{
		ID:        GenerateID(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		Tags:      normalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateTitle checks if the title meets the requirements
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("note title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("note title exceeds maximum length of %d characters (got %d)", MaxTitleLength, len(title))
	}
	return nil
}

// ValidateContent checks if the content meets the requirements
func ValidateContent(content string) error {
	if len(content) > MaxContentLength {
		return fmt.Errorf(
			"note content exceeds maximum length of %d characters (got %d). "+
				"Please shorten the content or split into multiple notes",
			MaxContentLength, len(content),
		)
	}
	return nil
}

// ValidateTags checks if the tags meet the requirements. Notes may be untagged.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("note allows at most %d tags (got %d)", MaxTags, len(tags))
	}
	for i, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tag at position %d is empty", i)
		}
	}
	return nil
}

// GenerateID creates a unique note ID using the current timestamp combined with
// a monotonically increasing counter.
func GenerateID() string {
	seq := idCounter.Add(1)
	return fmt.Sprintf("%s%d_%d", IDPrefix, time.Now().UnixNano(), seq)
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping order.
func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	return normalized
}

// Changes holds the optional fields of a note update.
type Changes struct {
	Title   *string
	Content *string
	Tags    *[]string
}

// IsEmpty reports whether no field is set.
func (c Changes) IsEmpty() bool {
	return c.Title == nil && c.Content == nil && c.Tags == nil
}

// Update applies the non-nil fields of c. Nothing changes if any field is invalid.
func (n *Note) Update(c Changes) error {
	if c.IsEmpty() {
		return fmt.Errorf("at least one of title, content or tags must be provided for update")
	}
	if c.Title != nil {
		if err := ValidateTitle(*c.Title); err != nil {
			return err
		}
	}
	if c.Content != nil {
		if err := ValidateContent(*c.Content); err != nil {
			return err
		}
	}
	if c.Tags != nil {
		if err := ValidateTags(*c.Tags); err != nil {
			return err
		}
	}

	if c.Title != nil {
		n.Title = strings.TrimSpace(*c.Title)
	}
	if c.Content != nil {
		n.Content = *c.Content
	}
	if c.Tags != nil {
		n.Tags = normalizeTags(*c.Tags)
	}
	n.UpdatedAt = time.Now().UTC()
	return nil
}

// Archive hides the note from list and search.
func (n *Note) Archive() {
	n.Archived = true
	n.UpdatedAt = time.Now().UTC()
}

// HasTag checks if the note has a specific tag (case-insensitive)
func (n *Note) HasTag(tag string) bool {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	for _, t := range n.Tags {
		if t == normalized {
			return true
		}
	}
	return false
}

// MatchesAllTags checks if the note has all specified tags (AND logic)
func (n *Note) MatchesAllTags(tags []string) bool {
	for _, tag := range tags {
		if !n.HasTag(tag) {
			return false
		}
	}
	return true
}

// ContainsText checks if the title or content contains the query (case-insensitive)
func (n *Note) ContainsText(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q)
}

func (n *Note) clone() *Note {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	return &c
}
