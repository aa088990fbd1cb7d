package mitm

// ModifierSet is an insertion-ordered set of modifiers, unique by identity.
// It is not safe for concurrent use; Registry guards it.
type ModifierSet struct {
	items []*Modifier
}

func (s *ModifierSet) Contains(m *Modifier) bool {
	return s.index(m) >= 0
}

// Add appends m unless it is already present. It reports whether m was added.
func (s *ModifierSet) Add(m *Modifier) bool {
	if m == nil || s.Contains(m) {
		return false
	}
	s.items = append(s.items, m)
	return true
}

// Remove deletes m, keeping the order of the others.
func (s *ModifierSet) Remove(m *Modifier) bool {
	i := s.index(m)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return true
}

func (s *ModifierSet) Len() int {
	return len(s.items)
}

// Items returns a copy of the members in insertion order.
func (s *ModifierSet) Items() []*Modifier {
	out := make([]*Modifier, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ModifierSet) index(m *Modifier) int {
	for i, item := range s.items {
		if item == m {
			return i
		}
	}
	return -1
}
