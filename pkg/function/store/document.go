package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/funcbox/pkg/function"
)

// FormatVersion tags every persisted document and backup.
const FormatVersion = "1.0"

// Document is the persisted form of a store: every function plus a format
// version tag. Backups carry the time they were taken.
type Document struct {
	Version    string               `json:"version" yaml:"version"`
	ExportedAt *time.Time           `json:"exportedAt,omitempty" yaml:"exportedAt,omitempty"`
	Functions  []*function.Function `json:"functions" yaml:"functions"`
}

// Check verifies the document shape and the required fields of every
// record. Every problem found is reported as an issue.
func (d *Document) Check() []function.Issue {
	if d == nil {
		return []function.Issue{{Kind: function.IssueValidation, Message: "document is empty"}}
	}

	var issues []function.Issue
	add := func(format string, args ...any) {
		issues = append(issues, function.Issue{Kind: function.IssueValidation, Message: fmt.Sprintf(format, args...)})
	}

	if d.Version == "" {
		add("missing format version")
	} else if major(d.Version) != major(FormatVersion) {
		add("unsupported format version %q (want %s)", d.Version, FormatVersion)
	}

	ids := make(map[string]bool, len(d.Functions))
	names := make(map[string]bool, len(d.Functions))
	for i, fn := range d.Functions {
		if fn == nil {
			add("function %d is empty", i)
			continue
		}
		label := fmt.Sprintf("function %d", i)
		if fn.Name != "" {
			label = fmt.Sprintf("function %d (%s)", i, fn.Name)
		}

		switch {
		case fn.ID == "":
			add("%s: missing id", label)
		case ids[fn.ID]:
			add("%s: duplicate id %s", label, fn.ID)
		}
		ids[fn.ID] = true

		switch key := function.NameKey(fn.Name); {
		case key == "":
			add("%s: missing name", label)
		case names[key]:
			add("%s: duplicate name", label)
		default:
			names[key] = true
		}

		if strings.TrimSpace(fn.Code) == "" {
			add("%s: missing code", label)
		}
		if strings.TrimSpace(fn.ReturnType) == "" {
			add("%s: missing return type", label)
		}
		for j, p := range fn.Parameters {
			if p.Name == "" || p.Type == "" {
				add("%s: parameter %d needs a name and a type", label, j)
			}
		}
		if fn.Metadata.Version < 1 {
			add("%s: version must be at least 1", label)
		}
		if fn.Metadata.UsageCount < 0 {
			add("%s: usage count must not be negative", label)
		}
		if fn.Metadata.CreatedAt.IsZero() {
			add("%s: missing creation time", label)
		}
	}
	return issues
}

func major(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}

// Encoding selects the serialization of exported documents.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// EncodingForPath picks YAML for .yaml/.yml paths and JSON otherwise.
func EncodingForPath(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return EncodingYAML
	}
	return EncodingJSON
}

// Marshal serializes a document.
func Marshal(doc *Document, enc Encoding) ([]byte, error) {
	if enc == EncodingYAML {
		var buf bytes.Buffer
		e := yaml.NewEncoder(&buf)
		e.SetIndent(2)
		if err := e.Encode(doc); err != nil {
			return nil, fmt.Errorf("store: encode yaml: %w", err)
		}
		if err := e.Close(); err != nil {
			return nil, fmt.Errorf("store: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encode json: %w", err)
	}
	return data, nil
}

// Unmarshal parses a document. Unknown JSON fields are rejected so that a
// file of the wrong kind is not mistaken for an empty store.
func Unmarshal(data []byte, enc Encoding) (*Document, error) {
	var doc Document
	if enc == EncodingYAML {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("store: decode yaml: %w", err)
		}
		return &doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("store: decode json: %w", err)
	}
	return &doc, nil
}
