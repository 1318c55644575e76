package testutil

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// NodeIDs returns the IDs of nodes in order.
func NodeIDs(nodes []model.TreeNode) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// AssertIDs verifies that got lists exactly the expected IDs, in order.
func AssertIDs(t *testing.T, what string, got []string, want ...string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = [%s], want [%s]", what, strings.Join(got, ","), strings.Join(want, ","))
	}
}

// AssertIDSet verifies that got holds exactly the expected IDs, in any order.
func AssertIDSet(t *testing.T, what string, got []string, want ...string) {
	t.Helper()
	seen := make(map[string]int, len(got))
	for _, id := range got {
		seen[id]++
	}
	ok := len(got) == len(want)
	for _, id := range want {
		if seen[id] != 1 {
			ok = false
		}
	}
	if !ok {
		t.Errorf("%s = {%s}, want {%s}", what, strings.Join(got, ","), strings.Join(want, ","))
	}
}

// AllIDs returns every node ID of the forest in preorder.
func AllIDs(roots []model.TreeNode) []string {
	var ids []string
	model.Walk(roots, func(n model.TreeNode, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}
