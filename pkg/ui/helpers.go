package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// FormatTimeRel returns a relative time string (e.g., "2h ago", "3d ago")
func FormatTimeRel(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
// Uses go-runewidth to handle wide characters correctly.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// padRight pads s with spaces to the given display width
func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// truncate truncates s to maxWidth cells
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// nodeMarkdown builds the detail pane document for a node: a heading, the
// description attribute verbatim, and the remaining attributes as a table.
func nodeMarkdown(n model.TreeNode, key string) string {
	var sb strings.Builder
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	sb.WriteString("# " + name + "\n\n")
	if n.ID != "" {
		sb.WriteString("`" + n.ID + "`")
	} else {
		sb.WriteString("_no id, shown as " + key + "_")
	}
	if k := len(n.Children); k > 0 {
		sb.WriteString(fmt.Sprintf(" · %d children", k))
	}
	sb.WriteString("\n\n")

	if desc := n.AttrString("description"); desc != "" {
		sb.WriteString(desc)
		sb.WriteString("\n\n")
	}

	var keys []string
	for k := range n.Attrs {
		if k != "description" {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		sb.WriteString("| Attribute | Value |\n|---|---|\n")
		for _, k := range keys {
			v := strings.ReplaceAll(n.AttrString(k), "|", `\|`)
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", k, truncate(strings.ReplaceAll(v, "\n", " "), 60)))
		}
	}
	return sb.String()
}
