package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// TreeDiff summarises how a reloaded tree differs from the previous one.
// Nodes are matched by id; nodes without an id are ignored.
type TreeDiff struct {
	// Added contains ids present only in the new tree
	Added []string
	// Removed contains ids present only in the old tree
	Removed []string
	// Renamed contains ids whose name changed
	Renamed []NameChange
	// Moved contains ids whose parent changed
	Moved []string
	// CountA and CountB are the node totals of the old and new trees
	CountA, CountB int
}

// NameChange records a renamed node
type NameChange struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// HasChanges returns true if the trees differ by id, name or parent
func (d TreeDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Renamed) > 0 || len(d.Moved) > 0
}

// Summary returns a one-line description suitable for a status bar
func (d TreeDiff) Summary() string {
	if !d.HasChanges() {
		return fmt.Sprintf("no changes (%d nodes)", d.CountB)
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d", n))
	}
	if n := len(d.Renamed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d renamed", n))
	}
	if n := len(d.Moved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d moved", n))
	}
	return fmt.Sprintf("%s (%d → %d nodes)", strings.Join(parts, ", "), d.CountA, d.CountB)
}

type placement struct {
	name   string
	parent string
}

func placements(roots []model.TreeNode) map[string]placement {
	out := make(map[string]placement)
	var walk func(nodes []model.TreeNode, parent string)
	walk = func(nodes []model.TreeNode, parent string) {
		for _, n := range nodes {
			if n.ID != "" {
				if _, dup := out[n.ID]; !dup {
					out[n.ID] = placement{name: n.Name, parent: parent}
				}
			}
			walk(n.Children, n.ID)
		}
	}
	walk(roots, "")
	return out
}

// Diff compares two trees. Result slices are sorted by id.
func Diff(before, after []model.TreeNode) TreeDiff {
	a := placements(before)
	b := placements(after)

	d := TreeDiff{CountA: model.Count(before), CountB: model.Count(after)}
	for id := range a {
		if _, ok := b[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	for id, pb := range b {
		pa, ok := a[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if pa.name != pb.name {
			d.Renamed = append(d.Renamed, NameChange{ID: id, From: pa.name, To: pb.name})
		}
		if pa.parent != pb.parent {
			d.Moved = append(d.Moved, id)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Moved)
	sort.Slice(d.Renamed, func(i, j int) bool { return d.Renamed[i].ID < d.Renamed[j].ID })
	return d
}
