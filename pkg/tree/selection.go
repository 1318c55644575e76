package tree

// selection is an insertion-ordered set of arena positions.
type selection struct {
	order   []int
	members map[int]struct{}
}

func newSelection() selection {
	return selection{members: make(map[int]struct{})}
}

func (s *selection) has(pos int) bool {
	_, ok := s.members[pos]
	return ok
}

// hasAll reports whether every position in group is selected.
func (s *selection) hasAll(group []int) bool {
	for _, pos := range group {
		if !s.has(pos) {
			return false
		}
	}
	return true
}

func (s *selection) add(pos int) {
	if s.has(pos) {
		return
	}
	s.members[pos] = struct{}{}
	s.order = append(s.order, pos)
}

func (s *selection) remove(pos int) {
	if !s.has(pos) {
		return
	}
	delete(s.members, pos)
	for i, p := range s.order {
		if p == pos {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *selection) clear() {
	s.order = nil
	s.members = make(map[int]struct{})
}

func (s *selection) len() int {
	return len(s.order)
}

// positions returns a copy of the selected positions in selection order.
func (s *selection) positions() []int {
	return append([]int(nil), s.order...)
}
