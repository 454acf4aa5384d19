package model

import (
	"slices"
	"strings"
	"unicode"
)

// ItemSet is a set of distinct extracted items.
//
// Membership is exact string equality after TrimItem; blank strings are
// never members. An ItemSet is not safe for
// concurrent use. The scanner owns one per scan and the controller guards
// the global one with its own lock.
type ItemSet struct {
	members map[string]struct{}
}

// NewItemSet creates a set containing the given items.
func NewItemSet(items ...string) *ItemSet {
	s := &ItemSet{members: make(map[string]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// TrimItem strips surrounding whitespace and byte order marks (U+FEFF).
func TrimItem(item string) string {
	return strings.TrimFunc(item, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// Add inserts item and reports whether the set grew.
func (s *ItemSet) Add(item string) bool {
	item = TrimItem(item)
	if item == "" {
		return false
	}
	if _, ok := s.members[item]; ok {
		return false
	}
	s.members[item] = struct{}{}
	return true
}

// Has reports whether item (after trimming) is a member.
func (s *ItemSet) Has(item string) bool {
	_, ok := s.members[TrimItem(item)]
	return ok
}

// Merge adds every item and returns how many of them were new.
func (s *ItemSet) Merge(items []string) int {
	added := 0
	for _, item := range items {
		if s.Add(item) {
			added++
		}
	}
	return added
}

// Len returns the number of members.
func (s *ItemSet) Len() int {
	return len(s.members)
}

// Clear removes every member.
func (s *ItemSet) Clear() {
	s.members = make(map[string]struct{})
}

// Items returns the members as a sorted slice. The order carries no meaning;
// sorting only keeps API output and exports stable.
func (s *ItemSet) Items() []string {
	items := make([]string, 0, len(s.members))
	for item := range s.members {
		items = append(items, item)
	}
	slices.Sort(items)
	return items
}
