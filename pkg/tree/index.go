package tree

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// noParent marks a root record.
const noParent = -1

// NodeRecord is the derived, per-render view of one TreeNode. Records live
// in an arena ordered by preorder position; Parent and Children refer to
// arena positions, never to live objects.
type NodeRecord struct {
	Key         string         // stable identity: caller id, or "#<pos>" when absent/duplicate
	Node        model.TreeNode // the node as supplied
	Parent      int            // arena position of the parent, noParent for roots
	Children    []int          // arena positions of the children, in input order
	HasChildren bool
	Depth       int

	attrs       map[string]any // private copy of Node.Attrs taken at build time
	attrsErr    error          // why attrs could not be copied
	hasChildKey bool           // Node.Children was present, possibly empty
}

// IsRoot reports whether the record has no parent.
func (r *NodeRecord) IsRoot() bool {
	return r.Parent == noParent
}

// Index maps every node of one tree snapshot to its place in the hierarchy.
type Index struct {
	records []NodeRecord
	roots   []int
	byKey   map[string]int
}

// BuildIndex derives the record forest from the root sequence. The forest
// mirrors the input exactly: same order, same nesting, every node once.
func BuildIndex(roots []model.TreeNode) *Index {
	ix := &Index{
		records: make([]NodeRecord, 0, model.Count(roots)),
		byKey:   make(map[string]int),
	}
	for i := range roots {
		ix.roots = append(ix.roots, ix.add(roots[i], noParent, 0))
	}
	return ix
}

// add appends node and its subtree in preorder and returns the node's position.
func (ix *Index) add(node model.TreeNode, parent, depth int) int {
	pos := len(ix.records)
	key := node.ID
	if _, taken := ix.byKey[key]; key == "" || taken {
		key = fmt.Sprintf("#%d", pos)
	}
	ix.byKey[key] = pos

	attrs, err := copyAttrs(node.Attrs)
	if err != nil {
		err = fmt.Errorf("node %q attributes not copied: %w", key, err)
	}

	ix.records = append(ix.records, NodeRecord{
		Key:         key,
		Node:        node,
		Parent:      parent,
		HasChildren: node.HasChildren(),
		Depth:       depth,
		attrs:       attrs,
		attrsErr:    err,
		hasChildKey: node.Children != nil,
	})

	children := make([]int, 0, len(node.Children))
	for i := range node.Children {
		children = append(children, ix.add(node.Children[i], pos, depth+1))
	}
	ix.records[pos].Children = children
	return pos
}

// Len returns the total number of nodes.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Roots returns the arena positions of the root nodes.
func (ix *Index) Roots() []int {
	return ix.roots
}

// Record returns the record at an arena position.
func (ix *Index) Record(pos int) *NodeRecord {
	return &ix.records[pos]
}

// Lookup resolves a node key to its arena position.
func (ix *Index) Lookup(key string) (int, bool) {
	pos, ok := ix.byKey[key]
	return pos, ok
}

// Parent returns the parent position of pos, if any.
func (ix *Index) Parent(pos int) (int, bool) {
	p := ix.records[pos].Parent
	return p, p != noParent
}

// Descendants enumerates every node below pos breadth-first, pos excluded.
// The worklist never grows past the node count, so traversal always ends.
func (ix *Index) Descendants(pos int) []int {
	var out []int
	queue := append([]int(nil), ix.records[pos].Children...)
	for len(queue) > 0 && len(out) < len(ix.records) {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, ix.records[next].Children...)
	}
	return out
}

// Ancestors returns the parent chain of pos, nearest first.
func (ix *Index) Ancestors(pos int) []int {
	var out []int
	for p := ix.records[pos].Parent; p != noParent; p = ix.records[p].Parent {
		out = append(out, p)
	}
	return out
}

// nodeData rebuilds the node at pos with its subtree from the build-time
// copies. A node whose attributes could not be copied comes back with only
// id and name; the rest of the subtree is unaffected. The returned error
// joins every such failure.
func (ix *Index) nodeData(pos int) (model.TreeNode, error) {
	rec := &ix.records[pos]
	node := model.TreeNode{ID: rec.Node.ID, Name: rec.Node.Name}
	var errs []error
	if rec.attrsErr != nil {
		errs = append(errs, rec.attrsErr)
	} else {
		// cannot fail: the stored copy already passed the same walk
		node.Attrs, _ = copyAttrs(rec.attrs)
	}
	if rec.hasChildKey {
		node.Children = make([]model.TreeNode, 0, len(rec.Children))
	}
	for _, c := range rec.Children {
		child, err := ix.nodeData(c)
		if err != nil {
			errs = append(errs, err)
		}
		node.Children = append(node.Children, child)
	}
	return node, errors.Join(errs...)
}

// maxAttrDepth bounds attribute nesting; deeper values are treated as cyclic.
const maxAttrDepth = 64

var errAttrTooDeep = errors.New("nested too deeply or cyclic")

// copyAttrs deep-copies maps and slices so neither the caller nor a consumer
// of SelectedNodes can mutate stored attributes. Other values, scalars and
// opaque ones like funcs, are kept as they are.
func copyAttrs(attrs map[string]any) (map[string]any, error) {
	if attrs == nil {
		return nil, nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		c, err := copyValue(reflect.ValueOf(v), 0)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}

func copyValue(v reflect.Value, depth int) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if depth > maxAttrDepth {
		return nil, errAttrTooDeep
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v.Interface(), nil
		}
		return copyValue(v.Elem(), depth)
	case reflect.Map:
		if v.IsNil() {
			return v.Interface(), nil
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c, err := copyValue(iter.Value(), depth+1)
			if err != nil {
				return nil, err
			}
			m.SetMapIndex(iter.Key(), valueOf(c, v.Type().Elem()))
		}
		return m.Interface(), nil
	case reflect.Slice:
		if v.IsNil() {
			return v.Interface(), nil
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c, err := copyValue(v.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			s.Index(i).Set(valueOf(c, v.Type().Elem()))
		}
		return s.Interface(), nil
	}
	if !v.CanInterface() {
		return nil, fmt.Errorf("unexported %s value", v.Type())
	}
	return v.Interface(), nil
}

// valueOf converts a copied value back to the element type of its container.
func valueOf(c any, elem reflect.Type) reflect.Value {
	if c == nil {
		return reflect.Zero(elem)
	}
	return reflect.ValueOf(c)
}
