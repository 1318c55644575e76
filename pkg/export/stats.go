package export

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// TreeStats describes the shape of a forest.
type TreeStats struct {
	Nodes    int `json:"nodes"`
	Roots    int `json:"roots"`
	Leaves   int `json:"leaves"`
	MaxDepth int `json:"max_depth"`

	// Depth distribution over all nodes (roots are depth 0)
	MeanDepth   float64 `json:"mean_depth"`
	StdDevDepth float64 `json:"stddev_depth"`

	// Branching over nodes with at least one child
	MeanBranching   float64 `json:"mean_branching"`
	StdDevBranching float64 `json:"stddev_branching"`
	MedianBranching float64 `json:"median_branching"`
	MaxBranching    int     `json:"max_branching"`

	MissingIDs   int `json:"missing_ids"`
	DuplicateIDs int `json:"duplicate_ids"`
}

// Stats computes TreeStats for roots.
func Stats(roots []model.TreeNode) TreeStats {
	s := TreeStats{Roots: len(roots)}
	var depths, branching []float64
	seen := make(map[string]bool)

	model.Walk(roots, func(n model.TreeNode, depth int) bool {
		s.Nodes++
		depths = append(depths, float64(depth))
		s.MaxDepth = max(s.MaxDepth, depth)
		switch {
		case n.ID == "":
			s.MissingIDs++
		case seen[n.ID]:
			s.DuplicateIDs++
		default:
			seen[n.ID] = true
		}
		if k := len(n.Children); k > 0 {
			branching = append(branching, float64(k))
			s.MaxBranching = max(s.MaxBranching, k)
		} else {
			s.Leaves++
		}
		return true
	})

	if len(depths) > 0 {
		s.MeanDepth, s.StdDevDepth = meanStdDev(depths)
	}
	if len(branching) > 0 {
		s.MeanBranching, s.StdDevBranching = meanStdDev(branching)
		sort.Float64s(branching)
		s.MedianBranching = stat.Quantile(0.5, stat.Empirical, branching, nil)
	}
	return s
}

// meanStdDev is stat.MeanStdDev with a zero deviation for a single sample.
func meanStdDev(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// String renders the stats as an aligned text block.
func (s TreeStats) String() string {
	return fmt.Sprintf(
		"nodes:      %d (%d roots, %d leaves)\n"+
			"depth:      max %d, mean %.2f ± %.2f\n"+
			"branching:  max %d, median %.1f, mean %.2f ± %.2f\n"+
			"ids:        %d missing, %d duplicated\n",
		s.Nodes, s.Roots, s.Leaves,
		s.MaxDepth, s.MeanDepth, s.StdDevDepth,
		s.MaxBranching, s.MedianBranching, s.MeanBranching, s.StdDevBranching,
		s.MissingIDs, s.DuplicateIDs,
	)
}
