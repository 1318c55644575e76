package export

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// Snapshot is the machine-readable state of a tree view.
type Snapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     string           `json:"summary"`
	Query       string           `json:"query,omitempty"`
	Matches     []string         `json:"matches,omitempty"`
	Options     tree.Options     `json:"options"`
	Rows        []SnapshotRow    `json:"rows"`
	Selected    []model.TreeNode `json:"selected"`
}

// SnapshotRow is one displayed row.
type SnapshotRow struct {
	Key         string `json:"key"`
	ID          string `json:"id"`
	Label       string `json:"label"`
	Depth       int    `json:"depth"`
	HasChildren bool   `json:"has_children,omitempty"`
	Expanded    bool   `json:"expanded,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
	Highlighted bool   `json:"highlighted,omitempty"`
}

// NewSnapshot captures the current state of tv.
func NewSnapshot(tv *tree.Treeview) Snapshot {
	rows := tv.Rows()
	snap := Snapshot{
		GeneratedAt: time.Now().UTC(),
		Summary:     tv.Describe(),
		Query:       tv.Query(),
		Matches:     tv.Matches(),
		Options:     tv.Options(),
		Rows:        make([]SnapshotRow, 0, len(rows)),
		Selected:    tv.SelectedNodes(),
	}
	for _, r := range rows {
		snap.Rows = append(snap.Rows, SnapshotRow{
			Key:         r.Key,
			ID:          r.ID,
			Label:       r.Label,
			Depth:       r.Depth,
			HasChildren: r.HasChildren,
			Expanded:    r.Expanded,
			Selected:    r.Selected,
			Highlighted: r.Highlighted,
		})
	}
	return snap
}

// JSON writes an indented Snapshot of tv.
func JSON(w io.Writer, tv *tree.Treeview) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewSnapshot(tv))
}
