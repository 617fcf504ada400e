package session

import "sync"

// Manager is the guarded-state cell spec.md §9 describes: the session list
// and the focused-session identity live behind one mutex, accessed only
// through closures, so no raw reference escapes a critical section (the
// render, listener, and input threads all call through this). The focused
// session is tracked by ID, not pointer, so it stays valid across holds of
// the guard even if the session slice is reallocated (spec.md §9
// "Back-references in session <-> manager").
type Manager struct {
	mu       sync.Mutex
	sessions []*Session
	focused  uint64 // 0 means "no session"
	nextID   uint64
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a newly-handshaken session and, if it's the first session,
// focuses it (spec.md §4.4 step 6).
func (m *Manager) Add(newSession func(id uint64) *Session) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s := newSession(m.nextID)
	m.sessions = append(m.sessions, s)
	if m.focused == 0 {
		m.focused = s.ID
	}
	return s
}

// With runs fn under the guard with the current session slice. fn must not
// retain the slice or its elements' pointers beyond the call — per spec.md
// §9, no reference is meant to escape the critical section, though Go
// cannot enforce this at compile time the way Rust's borrow checker can.
func (m *Manager) With(fn func(sessions []*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.sessions)
}

// RemoveRetired drops every session for which Retired() is true, clearing
// its framebuffer dirty state is the caller's responsibility (the render
// loop's GPU-resource cleanup pass, spec.md §4.7 step 4). Advances focus
// off a removed focused session, per I7.
func (m *Manager) RemoveRetired() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []*Session
	var removed []*Session
	for _, s := range m.sessions {
		if s.Retired() {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept

	if m.focused != 0 {
		stillPresent := false
		for _, s := range kept {
			if s.ID == m.focused {
				stillPresent = true
				break
			}
		}
		if !stillPresent {
			if len(kept) > 0 {
				m.focused = kept[0].ID
			} else {
				m.focused = 0
			}
		}
	}
	return removed
}

// Focused returns the currently focused session, or nil if there isn't one
// (I7: the focused pointer is either null or names a present session).
func (m *Manager) Focused() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(m.focused)
}

// FocusedID returns the focused session's identity (0 if none), for
// callers (the input pipeline) that re-resolve it under this same guard on
// every dispatch rather than holding a pointer across calls.
func (m *Manager) FocusedID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// SetFocus focuses the session with the given ID, if present.
func (m *Manager) SetFocus(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(id) != nil {
		m.focused = id
	}
}

// WithFocused re-resolves the focused session under the guard and runs fn
// against it, per spec.md §9 ("the input subsystem holds an identity of
// the focused session, re-resolved under the session-list guard each
// dispatch"). fn is skipped (not called) when nothing is focused.
func (m *Manager) WithFocused(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.find(m.focused); s != nil {
		fn(s)
	}
}

// FocusNext/FocusPrevious cycle focus among non-removed sessions, wrapping,
// per spec.md §4.8 "Focus cycling skips sessions marked for removal and
// wraps" and the boundary behaviours in §8.
func (m *Manager) FocusNext() { m.cycleFocus(1) }
func (m *Manager) FocusPrevious() { m.cycleFocus(-1) }

func (m *Manager) cycleFocus(dir int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.sessions)
	if n == 0 {
		return
	}
	if n == 1 {
		m.focused = m.sessions[0].ID
		return
	}
	idx := -1
	for i, s := range m.sessions {
		if s.ID == m.focused {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.focused = m.sessions[0].ID
		return
	}
	for step := 1; step <= n; step++ {
		next := ((idx+dir*step)%n + n) % n
		if !m.sessions[next].Retired() {
			m.focused = m.sessions[next].ID
			return
		}
	}
}

func (m *Manager) find(id uint64) *Session {
	if id == 0 {
		return nil
	}
	for _, s := range m.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}
