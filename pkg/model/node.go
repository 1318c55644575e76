// Package model defines the hierarchical node data a tree view renders.
//
// A TreeNode carries three well-known fields (id, name, children) and any
// number of extra attributes. Extra attributes are opaque: they are decoded,
// kept in Attrs, and written back unchanged when the node is encoded again.
package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Well-known keys of a serialized node.
const (
	KeyID       = "id"
	KeyName     = "name"
	KeyChildren = "children"
)

// TreeNode is one entry of the caller-supplied tree.
type TreeNode struct {
	ID       string
	Name     string
	Children []TreeNode    // nil = key absent; empty = present but no children
	Attrs    map[string]any // extra attributes, passed through verbatim
}

// HasChildren reports whether the node has at least one child.
func (n TreeNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Attr returns an extra attribute by key.
func (n TreeNode) Attr(key string) (any, bool) {
	if n.Attrs == nil {
		return nil, false
	}
	v, ok := n.Attrs[key]
	return v, ok
}

// AttrString returns an extra attribute formatted as a string, or "" when absent.
func (n TreeNode) AttrString(key string) string {
	v, ok := n.Attr(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// fields flattens the node into a single map in its serialized shape.
func (n TreeNode) fields() map[string]any {
	out := make(map[string]any, len(n.Attrs)+3)
	for k, v := range n.Attrs {
		out[k] = v
	}
	out[KeyID] = n.ID
	out[KeyName] = n.Name
	if n.Children != nil {
		out[KeyChildren] = n.Children
	}
	return out
}

// MarshalJSON encodes the node with its attributes inlined next to id/name/children.
func (n TreeNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.fields())
}

// UnmarshalJSON decodes a node object. Missing id or name are left empty;
// numeric ids are kept in their textual form.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding node: %w", err)
	}

	*n = TreeNode{}
	for key, value := range raw {
		switch key {
		case KeyID:
			n.ID = scalarText(value)
		case KeyName:
			n.Name = scalarText(value)
		case KeyChildren:
			if isJSONNull(value) {
				continue
			}
			children := []TreeNode{}
			if err := json.Unmarshal(value, &children); err != nil {
				return fmt.Errorf("decoding children of %q: %w", n.ID, err)
			}
			n.Children = children
		default:
			v, err := decodeAny(value)
			if err != nil {
				return fmt.Errorf("decoding attribute %q: %w", key, err)
			}
			if n.Attrs == nil {
				n.Attrs = make(map[string]any)
			}
			n.Attrs[key] = v
		}
	}
	return nil
}

// scalarText renders a JSON scalar as text: strings are unquoted, anything
// else (numbers, booleans) keeps its literal form.
func scalarText(raw json.RawMessage) string {
	if isJSONNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decodeAny decodes an arbitrary JSON value keeping numbers as json.Number
// so large integers survive a round trip.
func decodeAny(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalYAML encodes the node in the same flattened shape as JSON.
func (n TreeNode) MarshalYAML() (any, error) {
	return n.fields(), nil
}

// UnmarshalYAML decodes a node mapping.
func (n *TreeNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: node must be a mapping", value.Line)
	}

	*n = TreeNode{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		val := value.Content[i+1]
		switch key {
		case KeyID:
			n.ID = val.Value
		case KeyName:
			n.Name = val.Value
		case KeyChildren:
			if val.Tag == "!!null" {
				continue
			}
			children := []TreeNode{}
			if err := val.Decode(&children); err != nil {
				return fmt.Errorf("decoding children of %q: %w", n.ID, err)
			}
			n.Children = children
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("decoding attribute %q: %w", key, err)
			}
			if n.Attrs == nil {
				n.Attrs = make(map[string]any)
			}
			n.Attrs[key] = v
		}
	}
	return nil
}

// DecodeJSON parses a JSON array of root nodes. A single top-level object is
// accepted as a one-root forest.
func DecodeJSON(data []byte) ([]TreeNode, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var root TreeNode
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, err
		}
		return []TreeNode{root}, nil
	}
	var roots []TreeNode
	if err := json.Unmarshal(trimmed, &roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// DecodeYAML parses a YAML sequence of root nodes (or a single mapping).
func DecodeYAML(data []byte) ([]TreeNode, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	top := doc.Content[0]
	if top.Kind == yaml.MappingNode {
		var root TreeNode
		if err := top.Decode(&root); err != nil {
			return nil, err
		}
		return []TreeNode{root}, nil
	}
	var roots []TreeNode
	if err := top.Decode(&roots); err != nil {
		return nil, err
	}
	return roots, nil
}

// EncodeJSON writes roots as an indented JSON array.
func EncodeJSON(roots []TreeNode) ([]byte, error) {
	if roots == nil {
		roots = []TreeNode{}
	}
	return json.MarshalIndent(roots, "", "  ")
}

// EncodeYAML writes roots as a YAML sequence.
func EncodeYAML(roots []TreeNode) ([]byte, error) {
	if roots == nil {
		roots = []TreeNode{}
	}
	return yaml.Marshal(roots)
}

// Count returns the total number of nodes in the forest.
func Count(roots []TreeNode) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Children)
	}
	return n
}

// Walk visits every node in preorder. Returning false from fn skips the
// node's children.
func Walk(roots []TreeNode, fn func(node TreeNode, depth int) bool) {
	var walk func(nodes []TreeNode, depth int)
	walk = func(nodes []TreeNode, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(roots, 0)
}
