package tree

import (
	"strings"

	"golang.org/x/text/cases"
)

// searchState is derived from the current query over one index.
type searchState struct {
	query   string
	matched []bool // node name contains the query
	inside  []bool // some strict descendant matched
	matches []int  // matched positions in preorder
}

func (s *searchState) active() bool {
	return s.query != ""
}

func (s *searchState) reset() {
	*s = searchState{}
}

// run recomputes matches for query. Records are in preorder, so walking the
// arena backwards sees every child before its parent and one pass is enough
// to propagate "has a matching descendant" upwards.
func (s *searchState) run(ix *Index, query string) {
	s.query = query
	n := ix.Len()
	s.matched = make([]bool, n)
	s.inside = make([]bool, n)
	s.matches = s.matches[:0]

	// Casers carry state, so each run gets its own.
	folder := cases.Fold()
	needle := folder.String(query)
	for pos := 0; pos < n; pos++ {
		if strings.Contains(folder.String(ix.Record(pos).Node.Name), needle) {
			s.matched[pos] = true
			s.matches = append(s.matches, pos)
		}
	}
	for pos := n - 1; pos >= 0; pos-- {
		if !s.matched[pos] && !s.inside[pos] {
			continue
		}
		if parent, ok := ix.Parent(pos); ok {
			s.inside[parent] = true
		}
	}
}

func (s *searchState) isMatched(pos int) bool {
	return s.active() && s.matched[pos]
}

// isVisible reports whether pos survives the filter: it matched, or one of
// its descendants did. Without a query every node is visible.
func (s *searchState) isVisible(pos int) bool {
	if !s.active() {
		return true
	}
	return s.matched[pos] || s.inside[pos]
}

// isForced reports whether pos is held open because a descendant matched.
func (s *searchState) isForced(pos int) bool {
	return s.active() && s.inside[pos]
}
