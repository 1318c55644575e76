package tree

import (
	"github.com/vanderheijden86/treeview/pkg/debug"
	"github.com/vanderheijden86/treeview/pkg/metrics"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// SelectNode applies a click on a node's label. Whether the node turns on
// or off is derived from the current selection:
//
//   - multi-select: the node's membership toggles, nothing else changes.
//   - single-select: the node becomes the only selection, or the selection
//     empties if it already was the only one.
//   - single-select with cascade: the node and all its descendants become the
//     selection, or the selection empties if that group was already fully
//     selected.
//
// The selection handler runs after every completed call, even when the
// selection did not change.
func (t *Treeview) SelectNode(key string) error {
	return t.selectNode(key, nil)
}

// SetChecked applies a checkbox change. The new state comes with the
// interaction instead of being derived from the current selection; the
// mode rules of SelectNode otherwise apply. In cascade mode checking a node
// clears every other checkbox first, and unchecking clears the whole group.
func (t *Treeview) SetChecked(key string, checked bool) error {
	return t.selectNode(key, &checked)
}

func (t *Treeview) selectNode(key string, explicit *bool) error {
	if t.err != nil {
		return t.err
	}
	if !t.opts.NodeSelectionEnabled {
		return ErrSelectionDisabled
	}
	pos, err := t.lookup(key)
	if err != nil {
		return err
	}

	done := metrics.Timer(metrics.SelectionChange)
	switch {
	case t.opts.MultiSelectEnabled:
		on := resolve(explicit, !t.selection.has(pos))
		if on {
			t.selection.add(pos)
		} else {
			t.selection.remove(pos)
		}
		debug.Log("select %q multi on=%v", key, on)

	case t.opts.CascadeSelectChildren:
		group := append([]int{pos}, t.index.Descendants(pos)...)
		on := resolve(explicit, !t.selection.hasAll(group))
		t.selection.clear()
		if on {
			for _, p := range group {
				t.selection.add(p)
			}
		}
		debug.Log("select %q cascade on=%v group=%d", key, on, len(group))

	default:
		sole := t.selection.len() == 1 && t.selection.has(pos)
		on := resolve(explicit, !sole)
		t.selection.clear()
		if on {
			t.selection.add(pos)
		}
		debug.Log("select %q single on=%v", key, on)
	}
	done()

	t.redraw()
	t.notify()
	return nil
}

func resolve(explicit *bool, derived bool) bool {
	if explicit != nil {
		return *explicit
	}
	return derived
}

// bulkAllowed reports why a bulk selection operation cannot run, if it can't.
func (t *Treeview) bulkAllowed() error {
	switch {
	case t.err != nil:
		return t.err
	case !t.opts.NodeSelectionEnabled:
		return ErrSelectionDisabled
	case !t.opts.MultiSelectEnabled:
		return ErrMultiSelectOff
	case t.opts.CascadeSelectChildren:
		return ErrCascadeActive
	}
	return nil
}

// SelectAll selects every node, in tree order. Only available in
// multi-select mode without cascade; otherwise it logs a warning, returns
// the reason and does nothing.
func (t *Treeview) SelectAll() error {
	if t.err != nil {
		return t.err
	}
	if err := t.bulkAllowed(); err != nil {
		t.warnf("select all ignored: %v", err)
		return err
	}
	for pos := 0; pos < t.index.Len(); pos++ {
		t.selection.add(pos)
	}
	t.redraw()
	t.notify()
	return nil
}

// DeselectAll empties the selection under the same conditions as SelectAll.
func (t *Treeview) DeselectAll() error {
	if t.err != nil {
		return t.err
	}
	if err := t.bulkAllowed(); err != nil {
		t.warnf("deselect all ignored: %v", err)
		return err
	}
	t.selection.clear()
	t.redraw()
	t.notify()
	return nil
}

// ToggleSelectAll is the select-all control: it selects everything while
// anything is unselected, and deselects everything otherwise.
func (t *Treeview) ToggleSelectAll() error {
	if t.selection.len() < t.index.Len() {
		return t.SelectAll()
	}
	return t.DeselectAll()
}

// notify hands the current selection to the handler. State bookkeeping is
// complete before this runs.
func (t *Treeview) notify() {
	if t.onSelect == nil {
		return
	}
	t.onSelect(t.SelectedNodes())
}

// SelectedNodes returns the selected nodes' data in selection order, each
// with its subtree, as it was when the data was set. Attribute values come
// back with their original types. A node whose attributes could not be
// copied comes back with only id and name.
func (t *Treeview) SelectedNodes() []model.TreeNode {
	positions := t.selection.positions()
	out := make([]model.TreeNode, 0, len(positions))
	for _, pos := range positions {
		node, err := t.index.nodeData(pos)
		if err != nil {
			t.warnf("%v; returning id and name only", err)
		}
		out = append(out, node)
	}
	return out
}

// SelectedKeys returns the keys of the selected nodes in selection order.
func (t *Treeview) SelectedKeys() []string {
	positions := t.selection.positions()
	keys := make([]string, 0, len(positions))
	for _, pos := range positions {
		keys = append(keys, t.index.Record(pos).Key)
	}
	return keys
}

// SelectedCount returns the number of selected nodes.
func (t *Treeview) SelectedCount() int {
	return t.selection.len()
}
