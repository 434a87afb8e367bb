package tools

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxToolCallSize bounds a single tool call. Function bodies are small; a call
// this large is almost certainly a runaway generation.
const MaxToolCallSize = 256 << 10

const defaultServerName = "local"

var (
	// ErrNoToolCall is returned when the text contains no <tool> element.
	ErrNoToolCall = errors.New("no tool call found")

	// ErrToolCallTooLarge is returned for input above MaxToolCallSize.
	ErrToolCallTooLarge = fmt.Errorf("tool call exceeds %d bytes", MaxToolCallSize)

	// ErrMissingToolName is returned when <tool_name> is absent or empty.
	ErrMissingToolName = errors.New("tool call has no tool_name")
)

var (
	toolRegex = regexp.MustCompile(`(?s)<tool>.*?</tool>`)

	// codeRegex captures the body of <code> elements, which hold JavaScript
	// and routinely contain '<' and '&'.
	codeRegex = regexp.MustCompile(`(?s)(<code>)(.*?)(</code>)`)

	entityRegex = regexp.MustCompile(`^&(?:amp|lt|gt|quot|apos|#\d+|#x[0-9a-fA-F]+);`)
)

// ParseToolCall extracts the first tool call from text and returns it with
// the surrounding text.
//
// Function bodies should be sent in CDATA:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>create_custom_function</tool_name>
//	<arguments>
//	  <name>double</name>
//	  <return_type>number</return_type>
//	  <code><![CDATA[return n * 2;]]></code>
//	</arguments>
//	</tool>
//
// A body sent without CDATA is wrapped in one before a second parse attempt.
func ParseToolCall(text string) (*ToolCall, string, error) {
	if len(text) > MaxToolCallSize {
		return nil, text, ErrToolCallTooLarge
	}

	loc := toolRegex.FindStringIndex(text)
	if loc == nil {
		return nil, text, ErrNoToolCall
	}
	raw := text[loc[0]:loc[1]]

	var call ToolCall
	if err := UnmarshalXMLWithFallback([]byte(raw), &call); err != nil {
		return nil, text, fmt.Errorf("malformed tool call near %q: %w", excerpt(raw, 120), err)
	}
	call.ToolName = strings.TrimSpace(call.ToolName)
	if call.ToolName == "" {
		return nil, text, ErrMissingToolName
	}
	call.ServerName = strings.TrimSpace(call.ServerName)
	if call.ServerName == "" {
		call.ServerName = defaultServerName
	}

	remaining := strings.TrimSpace(text[:loc[0]] + text[loc[1]:])
	return &call, remaining, nil
}

// UnmarshalXMLWithFallback decodes data, and on failure retries once with
// <code> bodies wrapped in CDATA and bare ampersands escaped.
func UnmarshalXMLWithFallback(data []byte, v interface{}) error {
	err := xml.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	repaired := escapeAmpersands(wrapCode(data))
	if bytes.Equal(repaired, data) {
		return err
	}
	return xml.Unmarshal(repaired, v)
}

// wrapCode puts each <code> body that is not already CDATA into a CDATA
// section, splitting any "]]>" the body contains.
func wrapCode(data []byte) []byte {
	return codeRegex.ReplaceAllFunc(data, func(m []byte) []byte {
		parts := codeRegex.FindSubmatch(m)
		body := parts[2]
		if bytes.Contains(body, []byte("<![CDATA[")) {
			return m
		}
		body = bytes.ReplaceAll(body, []byte("]]>"), []byte("]]]]><![CDATA[>"))

		out := make([]byte, 0, len(m)+12)
		out = append(out, parts[1]...)
		out = append(out, "<![CDATA["...)
		out = append(out, body...)
		out = append(out, "]]>"...)
		return append(out, parts[3]...)
	})
}

// escapeAmpersands escapes '&' that does not start an entity. CDATA sections
// are left alone.
func escapeAmpersands(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data) + 16)
	for i := 0; i < len(data); i++ {
		if bytes.HasPrefix(data[i:], []byte("<![CDATA[")) {
			end := bytes.Index(data[i:], []byte("]]>"))
			if end < 0 {
				out.Write(data[i:])
				break
			}
			out.Write(data[i : i+end+3])
			i += end + 2
			continue
		}
		if data[i] == '&' && !entityRegex.Match(data[i:min(len(data), i+16)]) {
			out.WriteString("&amp;")
			continue
		}
		out.WriteByte(data[i])
	}
	return out.Bytes()
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
