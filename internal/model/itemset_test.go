package model

import (
	"slices"
	"testing"
)

// TestItemSetAdd tests insertion semantics.
func TestItemSetAdd(t *testing.T) {
	t.Parallel()

	t.Run("trims before membership test", func(t *testing.T) {
		t.Parallel()

		s := NewItemSet()
		if !s.Add("  a@b.com ") {
			t.Fatal("expected first add to grow the set")
		}
		if s.Add("a@b.com") {
			t.Error("expected trimmed duplicate to be rejected")
		}
		if !s.Has(" a@b.com") {
			t.Error("expected Has to trim its argument")
		}
	})

	t.Run("trims byte order marks", func(t *testing.T) {
		t.Parallel()

		s := NewItemSet("\uFEFFa@x.io")
		if s.Add("a@x.io") {
			t.Error("expected BOM-prefixed duplicate to be rejected")
		}
		if !slices.Equal(s.Items(), []string{"a@x.io"}) {
			t.Errorf("Items() = %q", s.Items())
		}
		if s.Add("\uFEFF \uFEFF") {
			t.Error("expected BOM-only item to be rejected")
		}
	})

	t.Run("blank items are never members", func(t *testing.T) {
		t.Parallel()

		s := NewItemSet()
		if s.Add("   ") || s.Add("") {
			t.Error("expected blank items to be rejected")
		}
		if s.Len() != 0 {
			t.Errorf("expected empty set, got %d members", s.Len())
		}
	})

	t.Run("comparison is case sensitive", func(t *testing.T) {
		t.Parallel()

		s := NewItemSet("A@B.com")
		if !s.Add("a@b.com") {
			t.Error("expected differently cased item to be distinct")
		}
	})
}

// TestItemSetMerge tests union semantics.
func TestItemSetMerge(t *testing.T) {
	t.Parallel()

	t.Run("counts only new members", func(t *testing.T) {
		t.Parallel()

		s := NewItemSet("a")
		if got := s.Merge([]string{"a", "b", "b", "c"}); got != 2 {
			t.Errorf("expected 2 new members, got %d", got)
		}
	})

	t.Run("order and repetition do not matter", func(t *testing.T) {
		t.Parallel()

		left := NewItemSet()
		left.Merge([]string{"a"})
		left.Merge([]string{"b", "a"})
		left.Merge([]string{"a"})

		right := NewItemSet()
		right.Merge([]string{"a", "b"})

		if !slices.Equal(left.Items(), right.Items()) {
			t.Errorf("expected equal sets, got %v and %v", left.Items(), right.Items())
		}
	})
}

// TestItemSetItems tests the snapshot accessor.
func TestItemSetItems(t *testing.T) {
	t.Parallel()

	s := NewItemSet("c", "a", "b")
	want := []string{"a", "b", "c"}
	if got := s.Items(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	s.Clear()
	if got := s.Items(); len(got) != 0 {
		t.Errorf("expected empty items after Clear, got %v", got)
	}
}
