package tree

import (
	"errors"
	"fmt"
)

// NodeState is the displayed state of one node.
type NodeState struct {
	Key         string
	ID          string
	Name        string
	Depth       int
	HasChildren bool
	Expanded    bool // displayed expansion, including search-forced
	Selected    bool
	Visible     bool // survives the active search filter
	Matched     bool // own name matched the active search
	Highlighted bool // same as Matched; ancestors are never highlighted
}

// Row is one line of the displayed tree.
type Row struct {
	NodeState
	Label string
}

func (t *Treeview) stateAt(pos int) NodeState {
	rec := t.index.Record(pos)
	matched := t.search.isMatched(pos)
	return NodeState{
		Key:         rec.Key,
		ID:          rec.Node.ID,
		Name:        rec.Node.Name,
		Depth:       rec.Depth,
		HasChildren: rec.HasChildren,
		Expanded:    rec.HasChildren && t.isExpanded(pos),
		Selected:    t.selection.has(pos),
		Visible:     t.search.isVisible(pos),
		Matched:     matched,
		Highlighted: matched,
	}
}

// State returns the displayed state of a node.
func (t *Treeview) State(key string) (NodeState, bool) {
	pos, ok := t.index.Lookup(key)
	if !ok {
		return NodeState{}, false
	}
	return t.stateAt(pos), true
}

// States returns every node's state in tree order, displayed or not.
func (t *Treeview) States() []NodeState {
	out := make([]NodeState, 0, t.index.Len())
	for pos := 0; pos < t.index.Len(); pos++ {
		out = append(out, t.stateAt(pos))
	}
	return out
}

// Rows returns the lines a renderer should draw, in tree order: nodes that
// pass the search filter and whose ancestors are all expanded.
func (t *Treeview) Rows() []Row {
	var rows []Row
	var walk func(positions []int)
	walk = func(positions []int) {
		for _, pos := range positions {
			if !t.search.isVisible(pos) {
				continue
			}
			rows = append(rows, Row{NodeState: t.stateAt(pos), Label: t.labelAt(pos)})
			if t.isExpanded(pos) {
				walk(t.index.Record(pos).Children)
			}
		}
	}
	walk(t.index.Roots())
	return rows
}

// Label returns the display content of a node. The custom renderer is used
// when set; if it fails or panics the plain name is returned instead.
func (t *Treeview) Label(key string) string {
	pos, ok := t.index.Lookup(key)
	if !ok {
		return ""
	}
	return t.labelAt(pos)
}

func (t *Treeview) labelAt(pos int) (label string) {
	rec := t.index.Record(pos)
	if t.render == nil {
		return rec.Node.Name
	}
	defer func() {
		if r := recover(); r != nil {
			t.warnf("render of node %q failed: %v", rec.Key, r)
			label = rec.Node.Name
		}
	}()
	out, err := t.render(rec.Node)
	if err != nil {
		t.warnf("render of node %q failed: %v", rec.Key, err)
		return rec.Node.Name
	}
	return out
}

// ── Controls ──

// SearchControlVisible reports whether a search input should be shown.
func (t *Treeview) SearchControlVisible() bool {
	return t.err == nil && t.opts.SearchEnabled
}

// ExpandCollapseControlsVisible reports whether expand-all/collapse-all
// controls should be shown.
func (t *Treeview) ExpandCollapseControlsVisible() bool {
	return t.err == nil && t.opts.ShowExpandCollapseAllButtons
}

// SelectAllControlVisible reports whether the select-all control should be
// shown. It is suppressed in every mode where bulk selection is refused.
func (t *Treeview) SelectAllControlVisible() bool {
	return t.opts.ShowSelectAllButton && t.bulkAllowed() == nil
}

// SelectAllLabel is the caption of the select-all control for the current
// selection.
func (t *Treeview) SelectAllLabel() string {
	if t.selection.len() < t.index.Len() {
		return "Select all"
	}
	return "Deselect all"
}

// CheckboxesVisible reports whether nodes should carry checkboxes.
func (t *Treeview) CheckboxesVisible() bool {
	return t.err == nil && t.opts.NodeSelectionEnabled && t.opts.CheckboxSelectionEnabled
}

// Describe summarises the instance for status lines and logs.
func (t *Treeview) Describe() string {
	if t.err != nil {
		return fmt.Sprintf("inert (%v)", t.err)
	}
	s := fmt.Sprintf("%d nodes, %d selected", t.index.Len(), t.selection.len())
	if t.search.active() {
		s += fmt.Sprintf(", %d matching %q", len(t.search.matches), t.search.query)
	}
	return s
}

// IsWarning reports whether err is one of the non-fatal conditions a
// Treeview returns, as opposed to an unexpected failure.
func IsWarning(err error) bool {
	for _, target := range []error{
		ErrNoSurface, ErrSelectionDisabled, ErrMultiSelectOff,
		ErrCascadeActive, ErrUnknownNode, ErrLeafNode,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
