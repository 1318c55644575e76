package tree

import (
	"log"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// Options are the behaviour switches of a Treeview. The zero value is not
// the default: use DefaultOptions, which turns node selection on.
type Options struct {
	SearchEnabled                bool `yaml:"search_enabled" json:"search_enabled"`
	InitiallyExpanded            bool `yaml:"initially_expanded" json:"initially_expanded"`
	MultiSelectEnabled           bool `yaml:"multi_select_enabled" json:"multi_select_enabled"`
	NodeSelectionEnabled         bool `yaml:"node_selection_enabled" json:"node_selection_enabled"`
	CascadeSelectChildren        bool `yaml:"cascade_select_children" json:"cascade_select_children"`
	CheckboxSelectionEnabled     bool `yaml:"checkbox_selection_enabled" json:"checkbox_selection_enabled"`
	ShowSelectAllButton          bool `yaml:"show_select_all_button" json:"show_select_all_button"`
	ShowExpandCollapseAllButtons bool `yaml:"show_expand_collapse_all_buttons" json:"show_expand_collapse_all_buttons"`

	// RestoreExpansionAfterSearch keeps each node's own expand/collapse state
	// when a search is cleared. When false, clearing a search resets every
	// node to InitiallyExpanded.
	RestoreExpansionAfterSearch bool `yaml:"restore_expansion_after_search" json:"restore_expansion_after_search"`
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		NodeSelectionEnabled: true,
	}
}

// Surface is the rendering collaborator a Treeview draws onto. Redraw is
// called synchronously after every state change; the logical state is
// already final when it runs, so a surface may animate freely.
type Surface interface {
	Redraw()
}

// SurfaceFunc adapts a plain function to Surface.
type SurfaceFunc func()

// Redraw calls f.
func (f SurfaceFunc) Redraw() { f() }

// Headless is a Surface that draws nothing, for robot/batch use.
var Headless Surface = SurfaceFunc(func() {})

// Logger receives non-fatal warnings.
type Logger interface {
	Printf(format string, args ...any)
}

// NodeRenderer produces the display content of a node. Errors and panics
// are contained per node: the plain name is shown instead.
type NodeRenderer func(node model.TreeNode) (string, error)

// SelectionHandler is notified with the full current selection, in
// selection order, after every completed selection mutation.
type SelectionHandler func(selected []model.TreeNode)

// Option configures optional collaborators of a Treeview.
type Option func(*Treeview)

// WithLogger sets the warning logger. Defaults to the standard logger.
func WithLogger(l Logger) Option {
	return func(t *Treeview) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithNodeRenderer installs a custom per-node renderer.
func WithNodeRenderer(fn NodeRenderer) Option {
	return func(t *Treeview) {
		t.render = fn
	}
}

// WithSelectionHandler installs the selection-changed callback.
func WithSelectionHandler(fn SelectionHandler) Option {
	return func(t *Treeview) {
		t.onSelect = fn
	}
}

func defaultLogger() Logger {
	return log.Default()
}
