package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/entrhq/funcbox/pkg/function"
	"github.com/entrhq/funcbox/pkg/function/service"
)

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	amber      = lipgloss.Color("#FCD34D")
	mutedGray  = lipgloss.Color("#6B7280")
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(mutedGray)
	successStyle = lipgloss.NewStyle().Foreground(mintGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	errorStyle   = lipgloss.NewStyle().Foreground(salmonPink)
	headerStyle  = lipgloss.NewStyle().Foreground(salmonPink).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// finish prints a failed response's issues and turns it into an error.
// In JSON mode the whole response is printed instead.
func finish(opts *rootOptions, resp *service.Response) error {
	if resp.Success {
		return nil
	}
	if opts.jsonOut {
		printJSON(opts.out, resp)
	} else {
		printIssues(opts.errOut, "Issues", errorStyle, resp.Issues)
		printIssues(opts.errOut, "Warnings", warnStyle, resp.Warnings)
	}
	return resp.Err()
}

func printIssues(w io.Writer, title string, style lipgloss.Style, issues []function.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintln(w, style.Render(title+":"))
	for _, issue := range issues {
		line := fmt.Sprintf("  - [%s] %s", issue.Kind, issue.String())
		if issue.Suggestion != "" {
			line += labelStyle.Render(" (" + issue.Suggestion + ")")
		}
		fmt.Fprintln(w, line)
	}
}

func printKV(w io.Writer, title string, rows [][2]string) {
	if title != "" {
		fmt.Fprintln(w, title)
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-*s", width+1, r[0]+":")), r[1])
	}
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

// highlight writes JavaScript source with terminal colors, or as is when
// plain is set or highlighting fails.
func highlight(w io.Writer, code string, plain bool) {
	if !plain {
		var b strings.Builder
		if err := quick.Highlight(&b, code, "javascript", "terminal256", "monokai"); err == nil {
			fmt.Fprintln(w, b.String())
			return
		}
	}
	fmt.Fprintln(w, code)
}
