package tree

// expansion holds the stored expand/collapse flag of every node. Flags on
// leaves are always false and never change.
type expansion struct {
	expanded []bool
	initial  bool
}

func newExpansion(ix *Index, initial bool) expansion {
	e := expansion{initial: initial}
	e.reset(ix)
	return e
}

// reset discards per-node history and applies the initial default.
func (e *expansion) reset(ix *Index) {
	e.expanded = make([]bool, ix.Len())
	for pos := range e.expanded {
		e.expanded[pos] = e.initial && ix.Record(pos).HasChildren
	}
}

func (e *expansion) isExpanded(pos int) bool {
	return e.expanded[pos]
}

// set changes one node. It reports false for leaves, which stay collapsed.
func (e *expansion) set(ix *Index, pos int, expanded bool) bool {
	if !ix.Record(pos).HasChildren {
		return false
	}
	e.expanded[pos] = expanded
	return true
}

// setAll expands or collapses every node that has children.
func (e *expansion) setAll(ix *Index, expanded bool) {
	for pos := range e.expanded {
		e.expanded[pos] = expanded && ix.Record(pos).HasChildren
	}
}
