package task

import "sort"

// TypeSet is an unordered set of task type identifiers.
type TypeSet map[string]struct{}

// NewTypeSet creates a set holding ids.
func NewTypeSet(ids ...string) TypeSet {
	s := make(TypeSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s TypeSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s TypeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every member of other.
func (s TypeSet) Union(other TypeSet) {
	for id := range other {
		s.Add(id)
	}
}

// Missing returns the members of s absent from known, sorted.
func (s TypeSet) Missing(known TypeSet) []string {
	var out []string
	for id := range s {
		if !known.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the members in lexical order.
func (s TypeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
