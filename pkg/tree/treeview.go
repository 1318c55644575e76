// Package tree implements the state machine behind a collapsible, searchable,
// selectable tree view: which nodes are expanded, which are selected, and
// which survive the current search filter.
//
// A Treeview owns all of its state; several instances never share anything.
// Every operation is synchronous. Logical state is final before the Surface
// is asked to redraw and before the selection handler runs, so handlers may
// call back into the Treeview (including SetData) safely.
package tree

import (
	"fmt"

	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/metrics"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// Treeview is one tree instance.
type Treeview struct {
	opts     Options
	surface  Surface
	logger   Logger
	render   NodeRenderer
	onSelect SelectionHandler
	err      error

	index     *Index
	expansion expansion
	selection selection
	search    searchState
}

// New creates a Treeview over roots. A nil surface is a configuration error:
// it is logged once and the returned instance is inert (see Err).
func New(surface Surface, roots []model.TreeNode, opts Options, options ...Option) *Treeview {
	t := &Treeview{
		opts:    opts,
		surface: surface,
		logger:  defaultLogger(),
	}
	for _, opt := range options {
		opt(t)
	}

	t.index = BuildIndex(nil)
	t.expansion = newExpansion(t.index, opts.InitiallyExpanded)
	t.selection = newSelection()

	if surface == nil {
		t.err = ErrNoSurface
		t.warnf("%v; tree view disabled", t.err)
		return t
	}

	t.load(roots)
	t.redraw()
	return t
}

// Err returns the configuration error that made this instance inert, or nil.
func (t *Treeview) Err() error {
	return t.err
}

// Options returns the configuration the Treeview was created with.
func (t *Treeview) Options() Options {
	return t.opts
}

// Index exposes the node index of the current data.
func (t *Treeview) Index() *Index {
	return t.index
}

// Len returns the number of nodes in the current data.
func (t *Treeview) Len() int {
	return t.index.Len()
}

// SetData replaces the tree. Selection and search are cleared and every
// node returns to the initial expansion; no state survives from the old data.
// No selection notification is sent.
func (t *Treeview) SetData(roots []model.TreeNode) error {
	if t.err != nil {
		return t.err
	}
	defer debug.LogEnterExit("SetData")()
	t.load(roots)
	t.redraw()
	return nil
}

func (t *Treeview) load(roots []model.TreeNode) {
	done := metrics.Timer(metrics.IndexBuild)
	t.index = BuildIndex(roots)
	done()

	t.expansion = newExpansion(t.index, t.opts.InitiallyExpanded)
	t.selection = newSelection()
	t.search.reset()
	debug.Log("loaded %d nodes (%d roots)", t.index.Len(), len(t.index.Roots()))
}

// lookup resolves key, returning ErrUnknownNode when it is not in the tree.
func (t *Treeview) lookup(key string) (int, error) {
	pos, ok := t.index.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, key)
	}
	return pos, nil
}

// ── Expansion ──

// Toggle flips the stored expansion of a node with children.
func (t *Treeview) Toggle(key string) error {
	if t.err != nil {
		return t.err
	}
	pos, err := t.lookup(key)
	if err != nil {
		return err
	}
	return t.setExpanded(pos, !t.expansion.isExpanded(pos))
}

// Expand opens a node with children.
func (t *Treeview) Expand(key string) error {
	if t.err != nil {
		return t.err
	}
	pos, err := t.lookup(key)
	if err != nil {
		return err
	}
	return t.setExpanded(pos, true)
}

// Collapse closes a node with children.
func (t *Treeview) Collapse(key string) error {
	if t.err != nil {
		return t.err
	}
	pos, err := t.lookup(key)
	if err != nil {
		return err
	}
	return t.setExpanded(pos, false)
}

func (t *Treeview) setExpanded(pos int, expanded bool) error {
	if !t.expansion.set(t.index, pos, expanded) {
		return fmt.Errorf("%w: %q", ErrLeafNode, t.index.Record(pos).Key)
	}
	t.redraw()
	return nil
}

// ExpandAll expands every node that has children.
func (t *Treeview) ExpandAll() error {
	if t.err != nil {
		return t.err
	}
	t.expansion.setAll(t.index, true)
	t.redraw()
	return nil
}

// CollapseAll collapses every node that has children.
func (t *Treeview) CollapseAll() error {
	if t.err != nil {
		return t.err
	}
	t.expansion.setAll(t.index, false)
	t.redraw()
	return nil
}

// isExpanded is the displayed expansion: the stored flag, or held open by
// an active search because a descendant matched.
func (t *Treeview) isExpanded(pos int) bool {
	return t.expansion.isExpanded(pos) || t.search.isForced(pos)
}

// ── Search ──

// Search filters the tree by a case-insensitive substring of node names.
// Matching nodes and their ancestors stay visible, ancestors are held open,
// and only the matching nodes are highlighted. An empty query clears the
// filter and, unless RestoreExpansionAfterSearch is set, resets every node
// to the initial expansion.
func (t *Treeview) Search(query string) error {
	if t.err != nil {
		return t.err
	}
	done := metrics.Timer(metrics.SearchFilter)
	if query == "" {
		t.search.reset()
		if !t.opts.RestoreExpansionAfterSearch {
			t.expansion.reset(t.index)
		}
		debug.Log("search cleared")
	} else {
		t.search.run(t.index, query)
		debug.Log("search %q matched %d of %d nodes", query, len(t.search.matches), t.index.Len())
	}
	done()
	t.redraw()
	return nil
}

// Query returns the active search query ("" when no search is active).
func (t *Treeview) Query() string {
	return t.search.query
}

// MatchCount returns the number of nodes matching the active search.
func (t *Treeview) MatchCount() int {
	return len(t.search.matches)
}

// Matches returns the keys of matching nodes in tree order.
func (t *Treeview) Matches() []string {
	keys := make([]string, 0, len(t.search.matches))
	for _, pos := range t.search.matches {
		keys = append(keys, t.index.Record(pos).Key)
	}
	return keys
}

func (t *Treeview) redraw() {
	if t.surface != nil {
		t.surface.Redraw()
	}
}

func (t *Treeview) warnf(format string, args ...any) {
	t.logger.Printf("warning: "+format, args...)
}
