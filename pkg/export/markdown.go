package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treeview/pkg/tree"
)

// markdownEscaper neutralises characters that would turn a label into markup.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"|", `\|`,
)

// Markdown writes the displayed rows as a nested list followed by a table
// of the selected nodes. Checkbox trees use task-list items; otherwise
// selected rows are marked with a check. Search matches are bold.
func Markdown(w io.Writer, tv *tree.Treeview) error {
	var sb strings.Builder

	sb.WriteString("# Tree\n\n")
	sb.WriteString(fmt.Sprintf("_%s_\n\n", markdownEscaper.Replace(tv.Describe())))

	rows := tv.Rows()
	if len(rows) == 0 {
		sb.WriteString("_No nodes to show._\n")
	}
	checkbox := tv.CheckboxesVisible()
	for _, r := range rows {
		sb.WriteString(strings.Repeat("  ", r.Depth))
		sb.WriteString("- ")
		if checkbox {
			if r.Selected {
				sb.WriteString("[x] ")
			} else {
				sb.WriteString("[ ] ")
			}
		}
		if r.HasChildren && !r.Expanded {
			sb.WriteString("▸ ")
		}
		label := markdownEscaper.Replace(r.Label)
		if r.Highlighted {
			label = "**" + label + "**"
		}
		sb.WriteString(label)
		if r.Selected && !checkbox {
			sb.WriteString(" ✓")
		}
		sb.WriteString("\n")
	}

	if keys := tv.SelectedKeys(); len(keys) > 0 {
		sb.WriteString("\n## Selected\n\n")
		writeSelectedTable(&sb, tv, keys)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// writeSelectedTable writes a column-aligned table in selection order.
func writeSelectedTable(sb *strings.Builder, tv *tree.Treeview, keys []string) {
	header := []string{"#", "Key", "Name"}
	rows := make([][]string, 0, len(keys))
	for i, key := range keys {
		st, _ := tv.State(key)
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			markdownEscaper.Replace(key),
			markdownEscaper.Replace(st.Name),
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(runewidth.StringWidth(h), 3)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	line := func(cells []string) {
		sb.WriteString("|")
		for i, cell := range cells {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	line(header)
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	line(sep)
	for _, row := range rows {
		line(row)
	}
}
