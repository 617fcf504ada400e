package session

import (
	"net"
	"testing"
)

func newTestSession(id uint64) *Session {
	_, server := net.Pipe()
	s := New(id, server, 1, Fullscreen, 1920, 1080)
	s.ID = id
	return s
}

func TestManagerFirstSessionIsFocused(t *testing.T) {
	m := NewManager()
	s := m.Add(func(id uint64) *Session { return newTestSession(id) })
	if m.FocusedID() != s.ID {
		t.Fatalf("expected first session focused")
	}
}

func TestFocusCycleWrapsAndSkipsRetired(t *testing.T) {
	m := NewManager()
	a := m.Add(func(id uint64) *Session { return newTestSession(id) })
	b := m.Add(func(id uint64) *Session { return newTestSession(id) })
	c := m.Add(func(id uint64) *Session { return newTestSession(id) })

	m.SetFocus(a.ID)
	m.FocusNext()
	if m.FocusedID() != b.ID {
		t.Fatalf("expected focus on b, got %d", m.FocusedID())
	}

	b.ErrorCount = 1000 // mark for removal without actually removing yet
	m.FocusNext()
	if m.FocusedID() != c.ID {
		t.Fatalf("expected focus to skip retired session b and land on c, got %d", m.FocusedID())
	}

	m.FocusNext()
	if m.FocusedID() != a.ID {
		t.Fatalf("expected focus to wrap back to a, got %d", m.FocusedID())
	}
}

func TestFocusCycleNoopWithZeroOrOneSessions(t *testing.T) {
	m := NewManager()
	m.FocusNext() // no sessions: must not panic
	if m.FocusedID() != 0 {
		t.Fatalf("expected no focus with zero sessions")
	}

	s := m.Add(func(id uint64) *Session { return newTestSession(id) })
	m.FocusNext()
	if m.FocusedID() != s.ID {
		t.Fatalf("expected focus unchanged with a single session")
	}
}

func TestRemoveRetiredAdvancesFocus(t *testing.T) {
	m := NewManager()
	a := m.Add(func(id uint64) *Session { return newTestSession(id) })
	b := m.Add(func(id uint64) *Session { return newTestSession(id) })
	m.SetFocus(a.ID)
	a.ErrorCount = 1000

	removed := m.RemoveRetired()
	if len(removed) != 1 || removed[0].ID != a.ID {
		t.Fatalf("expected a removed, got %+v", removed)
	}
	if m.FocusedID() != b.ID {
		t.Fatalf("expected focus to advance to remaining session b, got %d", m.FocusedID())
	}
}

func TestFocusedIsAlwaysPresent(t *testing.T) {
	m := NewManager()
	a := m.Add(func(id uint64) *Session { return newTestSession(id) })
	m.RemoveRetired() // a is healthy, must survive
	if m.Focused() == nil || m.Focused().ID != a.ID {
		t.Fatalf("expected a to remain focused and present")
	}
}
