package fraud

// orderedSet is a string set that preserves first-seen insertion order.
// Both the cross-provider detectors and the recommendation generator need
// deduplication whose output order is stable across runs, which Go maps do
// not give on their own.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// add inserts value under key, ignoring duplicates of key. Using a separate
// key allows case-insensitive deduplication that still reports the original
// spelling.
func (s *orderedSet) add(key, value string) {
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, value)
}

func (s *orderedSet) len() int {
	return len(s.items)
}

func (s *orderedSet) values() []string {
	return s.items
}
