// Package testutil provides deterministic tree fixtures and assertions for tests.
package testutil

import (
	"fmt"
	"math/rand"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// GeneratorConfig controls tree generation.
type GeneratorConfig struct {
	Seed        int64    // Random seed for determinism
	IDPrefix    string   // Prefix for node IDs (default: "n")
	MaxChildren int      // Upper bound of children per node (default: 4)
	MaxDepth    int      // Deepest level generated, root = 0 (default: 3)
	Names       []string // Name vocabulary; names get a numeric suffix
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		IDPrefix:    "n",
		MaxChildren: 4,
		MaxDepth:    3,
		Names:       []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"},
	}
}

// Generator creates tree fixtures.
type Generator struct {
	cfg  GeneratorConfig
	rng  *rand.Rand
	next int
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	def := DefaultConfig()
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = def.IDPrefix
	}
	if cfg.MaxChildren <= 0 {
		cfg.MaxChildren = def.MaxChildren
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if len(cfg.Names) == 0 {
		cfg.Names = def.Names
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

func (g *Generator) node(depth int) model.TreeNode {
	g.next++
	n := model.TreeNode{
		ID:    fmt.Sprintf("%s%d", g.cfg.IDPrefix, g.next),
		Name:  fmt.Sprintf("%s %d", g.cfg.Names[g.rng.Intn(len(g.cfg.Names))], g.next),
		Attrs: map[string]any{"seq": g.next},
	}
	if depth < g.cfg.MaxDepth {
		for i := g.rng.Intn(g.cfg.MaxChildren + 1); i > 0; i-- {
			n.Children = append(n.Children, g.node(depth+1))
		}
	}
	return n
}

// Forest creates a random forest with the given number of roots.
func (g *Generator) Forest(roots int) []model.TreeNode {
	out := make([]model.TreeNode, 0, roots)
	for i := 0; i < roots; i++ {
		out = append(out, g.node(0))
	}
	return out
}

// Chain creates a single path root -> ... of size nodes.
func (g *Generator) Chain(size int) []model.TreeNode {
	if size <= 0 {
		return nil
	}
	var build func(i int) model.TreeNode
	build = func(i int) model.TreeNode {
		n := model.TreeNode{ID: fmt.Sprintf("%s%d", g.cfg.IDPrefix, i), Name: fmt.Sprintf("Level %d", i)}
		if i < size-1 {
			n.Children = []model.TreeNode{build(i + 1)}
		}
		return n
	}
	return []model.TreeNode{build(0)}
}

// Wide creates one root with width leaf children.
func (g *Generator) Wide(width int) []model.TreeNode {
	root := model.TreeNode{ID: "root", Name: "Root"}
	for i := 0; i < width; i++ {
		root.Children = append(root.Children, model.TreeNode{
			ID:   fmt.Sprintf("%s%d", g.cfg.IDPrefix, i),
			Name: fmt.Sprintf("Leaf %d", i),
		})
	}
	return []model.TreeNode{root}
}

// Fruit is the small reference tree used across tests:
//
//	a  Apple
//	b  Banana
//	└─ b1 Banana Jr
func Fruit() []model.TreeNode {
	return []model.TreeNode{
		{ID: "a", Name: "Apple", Attrs: map[string]any{"color": "red"}},
		{ID: "b", Name: "Banana", Children: []model.TreeNode{
			{ID: "b1", Name: "Banana Jr"},
		}},
	}
}

// Orchard is a deeper fixture with two levels of nesting under each root.
func Orchard() []model.TreeNode {
	return []model.TreeNode{
		{ID: "trees", Name: "Trees", Children: []model.TreeNode{
			{ID: "apple", Name: "Apple tree", Children: []model.TreeNode{
				{ID: "gala", Name: "Gala"},
				{ID: "fuji", Name: "Fuji"},
			}},
			{ID: "pear", Name: "Pear tree", Children: []model.TreeNode{
				{ID: "bosc", Name: "Bosc"},
			}},
		}},
		{ID: "shrubs", Name: "Shrubs", Children: []model.TreeNode{
			{ID: "berry", Name: "Blueberry"},
		}},
		{ID: "shed", Name: "Shed"},
	}
}
