package tree

import "errors"

// Errors returned by Treeview operations. All of them are non-fatal: the
// call that returns one leaves the tree state untouched.
var (
	// ErrNoSurface means the Treeview was created without a rendering
	// surface. The instance is inert and every mutator returns this error.
	ErrNoSurface = errors.New("tree: no surface to render into")

	ErrSelectionDisabled = errors.New("tree: node selection is disabled")
	ErrMultiSelectOff    = errors.New("tree: bulk selection requires multi-select")
	ErrCascadeActive     = errors.New("tree: bulk selection is unavailable while cascade selection is on")
	ErrUnknownNode       = errors.New("tree: unknown node")
	ErrLeafNode          = errors.New("tree: node has no children")
)
