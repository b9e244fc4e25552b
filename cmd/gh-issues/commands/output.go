package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goblinsan/gh-issues/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const dateLayout = "2006-01-02 15:04"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeIssues(w io.Writer, format string, issues []types.IssueInfo) error {
	switch format {
	case formatJSON:
		return writeJSON(w, issues)
	case formatYAML:
		return writeYAML(w, issues)
	}

	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, "No issues found.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "TITLE", "STATE", "AUTHOR", "OPENED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, issue := range issues {
		t.Row(
			strconv.Itoa(issue.Number),
			issue.Title,
			issue.State,
			issue.Author,
			formatDate(issue.OpenedAt),
		)
	}
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func writeDetail(w io.Writer, format string, d *types.IssueDetailInfo) error {
	switch format {
	case formatJSON:
		return writeJSON(w, d)
	case formatYAML:
		return writeYAML(w, d)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", d.Number, d.Title)
	fmt.Fprintf(&b, "State:     %s\n", d.State)
	fmt.Fprintf(&b, "Author:    %s\n", d.Author)
	fmt.Fprintf(&b, "Opened:    %s\n", formatDate(d.OpenedAt))
	if d.ClosedAt != nil {
		fmt.Fprintf(&b, "Closed:    %s\n", formatDate(*d.ClosedAt))
	}
	if d.Milestone != "" {
		fmt.Fprintf(&b, "Milestone: %s\n", d.Milestone)
	}
	if len(d.Labels) > 0 {
		fmt.Fprintf(&b, "Labels:    %s\n", strings.Join(d.Labels, ", "))
	}
	if len(d.Assignees) > 0 {
		fmt.Fprintf(&b, "Assignees: %s\n", strings.Join(d.Assignees, ", "))
	}
	fmt.Fprintf(&b, "Comments:  %d\n", d.Comments)
	if d.URL != "" {
		fmt.Fprintf(&b, "URL:       %s\n", d.URL)
	}
	if d.Body != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Body)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}
