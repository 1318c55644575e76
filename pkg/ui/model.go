// Package ui is the interactive terminal front end of treeview. It drives a
// tree.Treeview from key presses and draws its rows with lipgloss.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeview/internal/datasource"
	"github.com/vanderheijden86/treeview/pkg/config"
	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
	"github.com/vanderheijden86/treeview/pkg/watcher"
)

// FileChangedMsg is sent when a watched data file changes on disk
type FileChangedMsg struct {
	Paths []string
}

// DataReloadedMsg carries the result of reloading the data files
type DataReloadedMsg struct {
	Roots []model.TreeNode
	Err   error
}

// statusClearMsg hides a status message once it has been shown long enough
type statusClearMsg struct {
	seq int
}

// ReloadFunc loads a fresh copy of the tree.
type ReloadFunc func(ctx context.Context) ([]model.TreeNode, error)

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changed(); !ok {
			return nil
		}
		return FileChangedMsg{Paths: w.Paths()}
	}
}

// ReloadCmd runs fn off the update loop.
func ReloadCmd(fn ReloadFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		roots, err := fn(ctx)
		return DataReloadedMsg{Roots: roots, Err: err}
	}
}

const statusTTL = 4 * time.Second

// shared holds the state the Treeview's collaborators write into. Model is
// copied by value on every update, so the collaborators get a pointer.
type shared struct {
	redraws  int
	warnings []string
}

func (s *shared) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	debug.Log("tree: %s", msg)
	s.warnings = append(s.warnings, strings.TrimPrefix(msg, "warning: "))
}

// Model is the bubbletea model of the tree browser.
type Model struct {
	tv     *tree.Treeview
	state  *shared
	roots  []model.TreeNode
	theme  Theme
	ui     config.UIConfig
	title  string
	reload ReloadFunc
	watch  *watcher.Watcher
	copyFn func(string) error

	rows      []tree.Row
	seenDraws int
	cursor    int
	cursorKey string
	offset    int

	searching bool
	search    textinput.Model

	showDetail bool
	detail     viewport.Model
	md         *glamour.TermRenderer
	detailKey  string

	showHelp bool
	status   string
	statusIs string // "", "error"
	statusN  int

	width, height int
	quitting      bool
	confirmed     bool
}

// Option configures a Model.
type Option func(*Model)

// WithTitle sets the header text.
func WithTitle(title string) Option {
	return func(m *Model) { m.title = title }
}

// WithReload sets how the data is reloaded when a watched file changes.
func WithReload(fn ReloadFunc) Option {
	return func(m *Model) { m.reload = fn }
}

// WithWatcher makes the model listen for data file changes.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watch = w }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copyFn = fn }
}

// WithTheme replaces the theme derived from the UI config.
func WithTheme(t Theme) Option {
	return func(m *Model) { m.theme = t }
}

// NewModel builds the browser over roots.
func NewModel(roots []model.TreeNode, opts tree.Options, uiCfg config.UIConfig, options ...Option) Model {
	st := &shared{}
	m := Model{
		state:      st,
		roots:      roots,
		ui:         uiCfg,
		title:      "treeview",
		copyFn:     clipboard.WriteAll,
		showDetail: uiCfg.DetailPane,
		width:      100,
		height:     30,
	}
	m.theme = ThemeFor(uiCfg.Theme, lipgloss.DefaultRenderer())
	for _, opt := range options {
		opt(&m)
	}
	if m.ui.Indent <= 0 {
		m.ui.Indent = 2
	}

	m.tv = tree.New(
		tree.SurfaceFunc(func() { st.redraws++ }),
		roots,
		opts,
		tree.WithLogger(st),
	)

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search names..."
	ti.CharLimit = 200
	m.search = ti

	glamourStyle := glamour.WithAutoStyle()
	switch uiCfg.Theme {
	case "dark", "light":
		glamourStyle = glamour.WithStandardStyle(uiCfg.Theme)
	}
	m.md, _ = glamour.NewTermRenderer(glamourStyle, glamour.WithWordWrap(60))
	m.detail = viewport.New(40, 20)

	m.syncRows()
	m.refreshDetail()
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watch != nil {
		return WatchFileCmd(m.watch)
	}
	return nil
}

// Treeview exposes the underlying state machine.
func (m Model) Treeview() *tree.Treeview { return m.tv }

// Cursor returns the key of the node under the cursor ("" when empty).
func (m Model) Cursor() string { return m.cursorKey }

// Status returns the current status line message.
func (m Model) Status() string { return m.status }

// Confirmed reports whether the user left with ctrl+s rather than quit.
func (m Model) Confirmed() bool { return m.confirmed }

// Searching reports whether the search input has focus.
func (m Model) Searching() bool { return m.searching }

// Apply runs fn against the Treeview before the program starts and picks up
// the rows it changed.
func (m Model) Apply(fn func(tv *tree.Treeview) error) (Model, error) {
	err := fn(m.tv)
	m.syncRows()
	m.refreshDetail()
	return m, err
}

func (m *Model) setStatus(msg string, isError bool) tea.Cmd {
	m.status = msg
	m.statusIs = ""
	if isError {
		m.statusIs = "error"
	}
	m.statusN++
	seq := m.statusN
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

// syncRows re-reads the displayed rows after the Treeview redrew and keeps
// the cursor on the same node when it is still shown.
func (m *Model) syncRows() {
	if m.rows != nil && m.seenDraws == m.state.redraws {
		return
	}
	m.seenDraws = m.state.redraws
	m.rows = m.tv.Rows()
	if m.rows == nil {
		m.rows = []tree.Row{}
	}

	for i, r := range m.rows {
		if r.Key == m.cursorKey {
			m.cursor = i
			m.clampScroll()
			return
		}
	}
	m.cursor = min(m.cursor, len(m.rows)-1)
	m.cursor = max(m.cursor, 0)
	m.cursorKey = ""
	if len(m.rows) > 0 {
		m.cursorKey = m.rows[m.cursor].Key
	}
	m.clampScroll()
}

func (m *Model) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.rows)-1, m.cursor+delta))
	m.cursorKey = m.rows[m.cursor].Key
	m.clampScroll()
}

func (m *Model) listHeight() int {
	h := m.height - 3 // header, status, help
	if m.searching || m.tv.Query() != "" {
		h--
	}
	return max(h, 1)
}

func (m *Model) clampScroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, max(0, len(m.rows)-h)))
}

func (m Model) current() (tree.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return tree.Row{}, false
	}
	return m.rows[m.cursor], true
}

// report turns a Treeview error into a status message. Warnings the
// Treeview logged itself are preferred since they carry more context.
func (m *Model) report(err error) tea.Cmd {
	if err == nil {
		if n := len(m.state.warnings); n > 0 {
			msg := m.state.warnings[n-1]
			m.state.warnings = nil
			return m.setStatus(msg, false)
		}
		return nil
	}
	msg := err.Error()
	if n := len(m.state.warnings); n > 0 {
		msg = m.state.warnings[n-1]
	}
	m.state.warnings = nil
	return m.setStatus(msg, !tree.IsWarning(err))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampScroll()
		m.detailKey = ""

	case statusClearMsg:
		if msg.seq == m.statusN {
			m.status = ""
			m.statusIs = ""
		}

	case FileChangedMsg:
		debug.Log("ui: data changed: %v", msg.Paths)
		if m.reload != nil {
			cmds = append(cmds, ReloadCmd(m.reload))
		}
		if m.watch != nil {
			cmds = append(cmds, WatchFileCmd(m.watch))
		}

	case DataReloadedMsg:
		cmds = append(cmds, m.applyReload(msg))

	case tea.KeyMsg:
		if m.searching {
			cmds = append(cmds, m.handleSearchKey(msg))
		} else {
			cmds = append(cmds, m.handleKey(msg))
		}
	}

	m.syncRows()
	m.refreshDetail()
	return m, tea.Batch(cmds...)
}

func (m *Model) applyReload(msg DataReloadedMsg) tea.Cmd {
	if msg.Err != nil {
		return m.setStatus(fmt.Sprintf("Reload error: %v", msg.Err), true)
	}
	diff := datasource.Diff(m.roots, msg.Roots)
	if err := m.tv.SetData(msg.Roots); err != nil {
		return m.report(err)
	}
	m.roots = msg.Roots
	m.detailKey = ""
	return m.setStatus("Reloaded: "+diff.Summary(), false)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		return m.runSearch("")
	case "enter":
		m.searching = false
		m.search.Blur()
		if m.tv.Query() != "" {
			return m.setStatus(fmt.Sprintf("%d matching %q", m.tv.MatchCount(), m.tv.Query()), false)
		}
		return nil
	case "up":
		m.moveCursor(-1)
		return nil
	case "down":
		m.moveCursor(1)
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		return tea.Batch(cmd, m.runSearch(m.search.Value()))
	}
	return cmd
}

func (m *Model) runSearch(query string) tea.Cmd {
	return m.report(m.tv.Search(query))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showHelp {
		m.showHelp = false
		return nil
	}

	row, ok := m.current()

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return tea.Quit

	case "?":
		m.showHelp = true

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.moveCursor(-len(m.rows))
	case "G", "end":
		m.moveCursor(len(m.rows))
	case "ctrl+d", "pgdown":
		m.moveCursor(m.listHeight() / 2)
	case "ctrl+u", "pgup":
		m.moveCursor(-m.listHeight() / 2)

	case "enter", "l", "right":
		if ok && row.HasChildren {
			if msg.String() == "right" || msg.String() == "l" {
				return m.report(m.tv.Expand(row.Key))
			}
			return m.report(m.tv.Toggle(row.Key))
		}
	case "h", "left":
		if !ok {
			return nil
		}
		if row.HasChildren && row.Expanded {
			return m.report(m.tv.Collapse(row.Key))
		}
		m.jumpToParent(row.Key)

	case " ", "x":
		if !ok {
			return nil
		}
		var err error
		if m.tv.CheckboxesVisible() {
			err = m.tv.SetChecked(row.Key, !row.Selected)
		} else {
			err = m.tv.SelectNode(row.Key)
		}
		if err != nil {
			return m.report(err)
		}
		return m.setStatus(m.selectionSummary(), false)

	case "a":
		if !m.tv.SelectAllControlVisible() {
			return m.setStatus("select all is not available", false)
		}
		if err := m.tv.ToggleSelectAll(); err != nil {
			return m.report(err)
		}
		return m.setStatus(m.selectionSummary(), false)

	case "E":
		if !m.tv.ExpandCollapseControlsVisible() {
			return nil
		}
		return m.report(m.tv.ExpandAll())
	case "C":
		if !m.tv.ExpandCollapseControlsVisible() {
			return nil
		}
		return m.report(m.tv.CollapseAll())

	case "/":
		if !m.tv.SearchControlVisible() {
			return m.setStatus("search is disabled", false)
		}
		m.searching = true
		m.search.SetValue(m.tv.Query())
		m.search.CursorEnd()
		return m.search.Focus()
	case "esc":
		if m.tv.Query() != "" {
			m.search.SetValue("")
			return m.runSearch("")
		}

	case "tab":
		m.showDetail = !m.showDetail
		m.detailKey = ""
	case "J":
		m.detail.LineDown(3)
	case "K":
		m.detail.LineUp(3)

	case "y":
		return m.copy(row, ok)

	case "ctrl+s":
		m.confirmed = true
		m.quitting = true
		return tea.Quit
	}
	return nil
}

func (m *Model) jumpToParent(key string) {
	ix := m.tv.Index()
	pos, ok := ix.Lookup(key)
	if !ok {
		return
	}
	parent, ok := ix.Parent(pos)
	if !ok {
		return
	}
	parentKey := ix.Record(parent).Key
	for i, r := range m.rows {
		if r.Key == parentKey {
			m.cursor = i
			m.cursorKey = parentKey
			m.clampScroll()
			return
		}
	}
}

func (m *Model) copy(row tree.Row, ok bool) tea.Cmd {
	var text, what string
	if keys := m.tv.SelectedKeys(); len(keys) > 0 {
		text = strings.Join(keys, "\n")
		what = fmt.Sprintf("%d selected keys", len(keys))
	} else if ok {
		text = row.Key
		what = row.Key
	} else {
		return nil
	}
	if err := m.copyFn(text); err != nil {
		return m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
	}
	return m.setStatus(fmt.Sprintf("Copied %s to clipboard", what), false)
}

func (m Model) selectionSummary() string {
	n := m.tv.SelectedCount()
	switch n {
	case 0:
		return "Nothing selected"
	case 1:
		return "Selected " + m.tv.SelectedKeys()[0]
	default:
		return fmt.Sprintf("%d selected", n)
	}
}

// refreshDetail re-renders the detail pane when the cursor moved to another node.
func (m *Model) refreshDetail() {
	if !m.showDetail {
		return
	}
	row, ok := m.current()
	if !ok {
		m.detail.SetContent("")
		m.detailKey = ""
		return
	}
	if row.Key == m.detailKey {
		return
	}
	m.detailKey = row.Key

	w, h := m.detailSize()
	m.detail.Width = w
	m.detail.Height = h

	var node model.TreeNode
	if pos, ok := m.tv.Index().Lookup(row.Key); ok {
		node = m.tv.Index().Record(pos).Node
	}
	doc := nodeMarkdown(node, row.Key)
	content := doc
	if m.md != nil {
		if out, err := m.md.Render(doc); err == nil {
			content = out
		}
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

func (m Model) detailSize() (int, int) {
	ratio := m.ui.DetailRatio
	if ratio <= 0 {
		ratio = 0.4
	}
	w := int(float64(m.width)*ratio) - 4
	return max(w, 10), max(m.listHeight()-2, 3)
}
