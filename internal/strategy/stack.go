package strategy

import "github.com/starford/navkit/internal/route"

// StackEntry is one level above a tab's root.
type StackEntry struct {
	Route          string
	NavigationType route.NavigationType
	Component      route.Component
}

// Stack is a tab's navigation stack. The root view is implicit, so an empty
// stack means the tab is showing its root.
type Stack struct {
	entries []StackEntry
}

// NewStack creates a new empty navigation stack.
func NewStack() *Stack {
	return &Stack{
		entries: make([]StackEntry, 0),
	}
}

// Push adds a new entry to the stack.
func (s *Stack) Push(e StackEntry) {
	s.entries = append(s.entries, e)
}

// Pop removes and returns the top entry from the stack.
// Returns nil if the stack is empty.
func (s *Stack) Pop() *StackEntry {
	if len(s.entries) == 0 {
		return nil
	}
	entry := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return &entry
}

// ReplaceTop swaps the top entry, or pushes when the stack is empty.
func (s *Stack) ReplaceTop(e StackEntry) {
	if len(s.entries) == 0 {
		s.entries = append(s.entries, e)
		return
	}
	s.entries[len(s.entries)-1] = e
}

// Peek returns the top entry without removing it.
// Returns nil if the stack is empty.
func (s *Stack) Peek() *StackEntry {
	if len(s.entries) == 0 {
		return nil
	}
	return &s.entries[len(s.entries)-1]
}

// IsEmpty returns true if the stack has no entries.
func (s *Stack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Len returns the number of entries in the stack.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Clear removes all entries from the stack.
func (s *Stack) Clear() {
	s.entries = s.entries[:0]
}
