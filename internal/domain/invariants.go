package domain

import (
	"fmt"
)

// CheckOrder verifies that sections occupy order indices 0..n-1 exactly once.
func CheckOrder(sections []Section) error {
	seen := make([]bool, len(sections))
	for _, s := range sections {
		if s.OrderIndex < 0 || s.OrderIndex >= len(sections) {
			return fmt.Errorf("section %d has order index %d outside [0,%d)", s.ID, s.OrderIndex, len(sections))
		}
		if seen[s.OrderIndex] {
			return fmt.Errorf("order index %d is used twice", s.OrderIndex)
		}
		seen[s.OrderIndex] = true
	}
	return nil
}

// CheckHistory verifies that a section with loaded history is consistent with it:
// content equals the last entry's New, timestamps never go backwards, and seq is dense.
func CheckHistory(s Section) error {
	if len(s.History) != s.Revision {
		return fmt.Errorf("section %d: revision %d but %d history entries", s.ID, s.Revision, len(s.History))
	}
	if len(s.History) == 0 {
		if s.Content != "" {
			return fmt.Errorf("section %d: content set without history", s.ID)
		}
		return nil
	}
	for i, h := range s.History {
		if h.Seq != i+1 {
			return fmt.Errorf("section %d: entry %d has seq %d", s.ID, i, h.Seq)
		}
		if i > 0 && h.Timestamp.Before(s.History[i-1].Timestamp) {
			return fmt.Errorf("section %d: entry %d is older than its predecessor", s.ID, i)
		}
	}
	if last := s.History[len(s.History)-1]; last.New != s.Content {
		return fmt.Errorf("section %d: content differs from last history entry", s.ID)
	}
	return nil
}
