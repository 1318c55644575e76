package tree

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/testutil"
)

func TestBuildIndexEmpty(t *testing.T) {
	ix := BuildIndex(nil)
	if ix.Len() != 0 {
		t.Errorf("expected 0 records, got %d", ix.Len())
	}
	if len(ix.Roots()) != 0 {
		t.Errorf("expected no roots, got %v", ix.Roots())
	}
}

func TestBuildIndexMirrorsInput(t *testing.T) {
	ix := BuildIndex(testutil.Fruit())

	if ix.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", ix.Len())
	}
	if !reflect.DeepEqual(ix.Roots(), []int{0, 1}) {
		t.Errorf("roots = %v, want [0 1]", ix.Roots())
	}

	pos, ok := ix.Lookup("b1")
	if !ok {
		t.Fatal("b1 not indexed")
	}
	rec := ix.Record(pos)
	if rec.Depth != 1 {
		t.Errorf("b1 depth = %d, want 1", rec.Depth)
	}
	if rec.HasChildren {
		t.Error("b1 should be a leaf")
	}
	parent, ok := ix.Parent(pos)
	if !ok || ix.Record(parent).Key != "b" {
		t.Errorf("b1 parent = %d (%v), want b", parent, ok)
	}

	bPos, _ := ix.Lookup("b")
	if !ix.Record(bPos).HasChildren || !ix.Record(bPos).IsRoot() {
		t.Error("b should be a root with children")
	}
	if _, ok := ix.Parent(bPos); ok {
		t.Error("root should have no parent")
	}
}

func TestDescendantsBreadthFirst(t *testing.T) {
	ix := BuildIndex(testutil.Orchard())
	pos, _ := ix.Lookup("trees")

	var keys []string
	for _, d := range ix.Descendants(pos) {
		keys = append(keys, ix.Record(d).Key)
	}
	testutil.AssertIDs(t, "descendants(trees)", keys, "apple", "pear", "gala", "fuji", "bosc")

	leaf, _ := ix.Lookup("shed")
	if d := ix.Descendants(leaf); len(d) != 0 {
		t.Errorf("leaf should have no descendants, got %v", d)
	}
}

func TestAncestorsNearestFirst(t *testing.T) {
	ix := BuildIndex(testutil.Orchard())
	pos, _ := ix.Lookup("fuji")

	var keys []string
	for _, a := range ix.Ancestors(pos) {
		keys = append(keys, ix.Record(a).Key)
	}
	testutil.AssertIDs(t, "ancestors(fuji)", keys, "apple", "trees")
}

func TestSyntheticKeysForMissingAndDuplicateIDs(t *testing.T) {
	ix := BuildIndex([]model.TreeNode{
		{ID: "x", Name: "First"},
		{ID: "x", Name: "Second"},
		{Name: "Anonymous"},
	})

	var keys []string
	for pos := 0; pos < ix.Len(); pos++ {
		keys = append(keys, ix.Record(pos).Key)
	}
	testutil.AssertIDs(t, "keys", keys, "x", "#1", "#2")

	if ix.Record(1).Node.ID != "x" {
		t.Error("record should keep the caller's id even when keyed synthetically")
	}
}

func TestLargeChainDoesNotLoseNodes(t *testing.T) {
	roots := testutil.NewDefault().Chain(500)
	ix := BuildIndex(roots)
	if ix.Len() != 500 {
		t.Fatalf("expected 500 records, got %d", ix.Len())
	}
	for pos := 0; pos < ix.Len(); pos++ {
		rec := ix.Record(pos)
		if rec.Depth != pos || rec.Node.Name != fmt.Sprintf("Level %d", pos) {
			t.Fatalf("record %d out of order: depth %d name %q", pos, rec.Depth, rec.Node.Name)
		}
	}
	if got := len(ix.Descendants(0)); got != 499 {
		t.Errorf("expected 499 descendants of the chain root, got %d", got)
	}
	if got := len(ix.Ancestors(499)); got != 499 {
		t.Errorf("expected 499 ancestors of the deepest node, got %d", got)
	}
}

func TestDeepChainBuildsQuickly(t *testing.T) {
	roots := testutil.NewDefault().Chain(5000)
	start := time.Now()
	ix := BuildIndex(roots)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("indexing a 5000-deep chain took %v", elapsed)
	}
	if ix.Len() != 5000 {
		t.Fatalf("expected 5000 records, got %d", ix.Len())
	}

	node, err := ix.nodeData(0)
	if err != nil {
		t.Fatalf("nodeData: %v", err)
	}
	if got := model.Count([]model.TreeNode{node}); got != 5000 {
		t.Errorf("rebuilt chain has %d nodes, want 5000", got)
	}
}

func TestNodeDataKeepsAttributeTypes(t *testing.T) {
	ix := BuildIndex([]model.TreeNode{{
		ID: "a",
		Attrs: map[string]any{
			"size":  5,
			"ratio": 0.5,
			"tags":  []string{"x", "y"},
			"meta":  map[string]any{"rank": int64(2)},
		},
	}})
	node, err := ix.nodeData(0)
	if err != nil {
		t.Fatalf("nodeData: %v", err)
	}
	if v, ok := node.Attrs["size"].(int); !ok || v != 5 {
		t.Errorf("size = %#v, want int 5", node.Attrs["size"])
	}
	if v, ok := node.Attrs["ratio"].(float64); !ok || v != 0.5 {
		t.Errorf("ratio = %#v, want float64 0.5", node.Attrs["ratio"])
	}
	if !reflect.DeepEqual(node.Attrs["tags"], []string{"x", "y"}) {
		t.Errorf("tags = %#v", node.Attrs["tags"])
	}
	meta, _ := node.Attrs["meta"].(map[string]any)
	if v, ok := meta["rank"].(int64); !ok || v != 2 {
		t.Errorf("meta.rank = %#v, want int64 2", meta["rank"])
	}
}

func TestNodeDataIsolatedFromBothSides(t *testing.T) {
	roots := []model.TreeNode{{
		ID:    "a",
		Attrs: map[string]any{"tags": []any{"x"}, "meta": map[string]any{"k": "v"}},
	}}
	ix := BuildIndex(roots)
	roots[0].Attrs["tags"].([]any)[0] = "changed"
	roots[0].Attrs["meta"].(map[string]any)["k"] = "changed"

	first, _ := ix.nodeData(0)
	first.Attrs["tags"].([]any)[0] = "mutated"

	second, _ := ix.nodeData(0)
	if got := second.Attrs["tags"].([]any)[0]; got != "x" {
		t.Errorf("tags[0] = %v, want x", got)
	}
	if got := second.Attrs["meta"].(map[string]any)["k"]; got != "v" {
		t.Errorf("meta.k = %v, want v", got)
	}
}

func TestNodeDataUncopyableAttributeOnlyCostsThatNode(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic

	ix := BuildIndex([]model.TreeNode{{
		ID: "p", Name: "Parent", Attrs: map[string]any{"color": "red"},
		Children: []model.TreeNode{
			{ID: "c", Name: "Child", Attrs: map[string]any{"loop": cyclic}},
			{ID: "d", Name: "Sibling", Attrs: map[string]any{"n": 1}},
		},
	}})

	parent, err := ix.nodeData(0)
	if err == nil || !strings.Contains(err.Error(), `"c"`) {
		t.Errorf("expected an error naming the child, got %v", err)
	}
	if parent.AttrString("color") != "red" {
		t.Errorf("parent lost its attributes: %v", parent.Attrs)
	}
	if len(parent.Children) != 2 {
		t.Fatalf("parent lost its children: %+v", parent.Children)
	}
	if c := parent.Children[0]; c.ID != "c" || c.Name != "Child" || c.Attrs != nil {
		t.Errorf("failing child should fall back to id and name, got %+v", c)
	}
	if v, _ := parent.Children[1].Attr("n"); v != 1 {
		t.Errorf("sibling attrs = %v", parent.Children[1].Attrs)
	}
}

func TestNodeDataKeepsChildrenPresence(t *testing.T) {
	ix := BuildIndex([]model.TreeNode{
		{ID: "absent"},
		{ID: "empty", Children: []model.TreeNode{}},
	})
	absent, _ := ix.nodeData(0)
	empty, _ := ix.nodeData(1)
	if absent.Children != nil {
		t.Errorf("absent children should stay nil, got %#v", absent.Children)
	}
	if empty.Children == nil || len(empty.Children) != 0 {
		t.Errorf("empty children should stay present, got %#v", empty.Children)
	}
}
