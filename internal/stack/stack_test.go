package stack

import (
	"testing"
)

func TestStack_New(t *testing.T) {
	s := New[int]()

	if !s.IsEmpty() {
		t.Error("New() stack should be empty")
	}

	if s.Size() != 0 {
		t.Errorf("New() stack size = %d, want 0", s.Size())
	}
}

func TestStack_PushAndPop(t *testing.T) {
	s := New[rune]()

	s.Push('[', '\'')

	if s.Size() != 2 {
		t.Errorf("Push() stack size = %d, want 2", s.Size())
	}

	// LIFO order
	val, ok := s.Pop()
	if !ok || val != '\'' {
		t.Errorf("Pop() = %q, %t, want ''', true", val, ok)
	}

	val, ok = s.Pop()
	if !ok || val != '[' {
		t.Errorf("Pop() = %q, %t, want '[', true", val, ok)
	}

	val, ok = s.Pop()
	if ok || val != 0 {
		t.Errorf("Pop() from empty stack = %q, %t, want 0, false", val, ok)
	}

	if !s.IsEmpty() {
		t.Error("Pop() stack should be empty after popping all elements")
	}
}

func TestStack_Peek(t *testing.T) {
	s := New[string]()

	val, ok := s.Peek()
	if ok || val != "" {
		t.Errorf("Peek() on empty stack = %q, %t, want \"\", false", val, ok)
	}

	s.Push("first")
	s.Push("second")

	val, ok = s.Peek()
	if !ok || val != "second" {
		t.Errorf("Peek() = %q, %t, want \"second\", true", val, ok)
	}

	// Ensure peek doesn't modify stack
	if s.Size() != 2 {
		t.Errorf("Peek() changed stack size to %d, want 2", s.Size())
	}
}
