package keyset

import "sort"

// KeySet is an unordered set of resource keys. Keys are case-sensitive.
type KeySet map[string]struct{}

// New creates a KeySet holding the given keys.
func New(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts key into the set.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}

// Contains reports whether key is in the set.
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys.
func (s KeySet) Len() int {
	return len(s)
}

// Merge adds every key of other into s.
func (s KeySet) Merge(other KeySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Union returns a new set holding the keys of all given sets.
func Union(sets ...KeySet) KeySet {
	out := make(KeySet)
	for _, set := range sets {
		out.Merge(set)
	}
	return out
}

// Difference returns a new set with the keys of a that are not in b.
func Difference(a, b KeySet) KeySet {
	out := make(KeySet)
	for k := range a {
		if _, ok := b[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Sorted returns the keys in lexicographic order.
func (s KeySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
