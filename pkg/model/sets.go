package model

// Set is the membership capability behind vocabulary, target and
// must-contain filtering. Implementations only need Contains; training
// code never branches on whether a set was configured because absent
// sets default to Universe.
type Set interface {
	Contains(item string) bool
}

// Universe is the contains-everything sentinel used for unset predicates.
type Universe struct{}

// Contains always reports true.
func (Universe) Contains(string) bool { return true }

// StringSet is a plain map-backed Set for small vocabularies.
type StringSet map[string]struct{}

// NewStringSet builds a StringSet from items.
func NewStringSet(items ...string) StringSet {
	s := make(StringSet, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Contains reports whether item is in the set.
func (s StringSet) Contains(item string) bool {
	_, ok := s[item]
	return ok
}

// Add inserts item into the set.
func (s StringSet) Add(item string) {
	s[item] = struct{}{}
}
