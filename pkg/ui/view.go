package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeview/pkg/metrics"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// helpText lists the key bindings. Lines for controls the options hide are
// dropped by helpLines.
var helpText = []struct {
	keys, what string
	when       func(tv *tree.Treeview) bool
}{
	{"j/k ↑/↓", "move", nil},
	{"g/G", "top / bottom", nil},
	{"enter", "expand or collapse", nil},
	{"l/h →/←", "expand / collapse or go to parent", nil},
	{"space x", "select node", func(tv *tree.Treeview) bool { return tv.Options().NodeSelectionEnabled }},
	{"a", "select all / deselect all", (*tree.Treeview).SelectAllControlVisible},
	{"E/C", "expand all / collapse all", (*tree.Treeview).ExpandCollapseControlsVisible},
	{"/", "search, esc clears", (*tree.Treeview).SearchControlVisible},
	{"tab", "toggle detail pane, J/K scroll it", nil},
	{"y", "copy selected keys", nil},
	{"ctrl+s", "quit and print the selection", nil},
	{"q", "quit", nil},
}

func helpLines(tv *tree.Treeview) []string {
	var out []string
	for _, h := range helpText {
		if h.when != nil && !h.when(tv) {
			continue
		}
		out = append(out, fmt.Sprintf("%-10s %s", h.keys, h.what))
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	defer metrics.Timer(metrics.UIRender)()

	t := m.theme
	header := t.Header.Width(m.width).Render(truncate(m.title+" · "+m.tv.Describe(), max(m.width-2, 1)))

	if m.showHelp {
		body := t.Pane.Render(strings.Join(helpLines(m.tv), "\n"))
		return lipgloss.JoinVertical(lipgloss.Left, header, body, t.MutedText.Render("press any key"))
	}

	var sections []string
	sections = append(sections, header)
	if m.searching {
		sections = append(sections, m.search.View())
	} else if q := m.tv.Query(); q != "" {
		sections = append(sections, t.MutedText.Render(fmt.Sprintf("/ %s  (%d matches, esc to clear)", q, m.tv.MatchCount())))
	}

	listWidth := m.width
	if m.showDetail {
		listWidth = m.width - (m.detail.Width + 4)
	}
	list := m.renderList(max(listWidth, 10))
	if m.showDetail {
		pane := t.Pane.Height(m.detail.Height).Render(m.detail.View())
		list = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(listWidth).Render(list), pane)
	}
	sections = append(sections, list)
	sections = append(sections, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderList(width int) string {
	t := m.theme
	h := m.listHeight()
	if len(m.rows) == 0 {
		msg := "No nodes"
		if err := m.tv.Err(); err != nil {
			msg = fmt.Sprintf("Tree view unavailable: %v", err)
		} else if m.tv.Query() != "" {
			msg = fmt.Sprintf("No nodes match %q", m.tv.Query())
		}
		return t.MutedText.Render(msg) + strings.Repeat("\n", h-1)
	}

	checkbox := m.tv.CheckboxesVisible()
	end := min(len(m.rows), m.offset+h)
	lines := make([]string, 0, h)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(m.rows[i], i == m.cursor, checkbox, width))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderRow(r tree.Row, isCursor, checkbox bool, width int) string {
	t := m.theme
	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", r.Depth*m.ui.Indent))

	switch {
	case !r.HasChildren:
		sb.WriteString("  ")
	case r.Expanded:
		sb.WriteString(t.Expander.Render("▾") + " ")
	default:
		sb.WriteString(t.Expander.Render("▸") + " ")
	}

	if checkbox {
		if r.Selected {
			sb.WriteString(t.CheckOn.Render("[x]") + " ")
		} else {
			sb.WriteString(t.CheckOff.Render("[ ]") + " ")
		}
	}

	used := r.Depth*m.ui.Indent + 2
	if checkbox {
		used += 4
	}
	label := truncate(r.Label, max(width-used-3, 4))
	switch {
	case r.Highlighted:
		label = t.MatchText.Render(label)
	case r.Selected:
		label = t.Selected.Render(label)
	default:
		label = t.Base.Render(label)
	}
	sb.WriteString(label)
	if r.Selected && !checkbox {
		// highlight wins over selection colour, so the mark carries it
		sb.WriteString(" " + t.CheckOn.Render("✓"))
	}

	line := sb.String()
	if isCursor {
		return t.Cursor.Render(line)
	}
	return " " + line
}

func (m Model) renderStatus() string {
	t := m.theme
	if m.status != "" {
		if m.statusIs == "error" {
			return t.ErrorText.Render(truncate(m.status, m.width))
		}
		return t.StatusText.Render(truncate(m.status, m.width))
	}
	hint := "? help · q quit"
	if n := m.tv.SelectedCount(); n > 0 {
		hint = fmt.Sprintf("%d selected · %s", n, hint)
	}
	return t.MutedText.Render(truncate(hint, m.width))
}
