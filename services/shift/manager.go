package shift

import (
	"sync"
)

// Manager hands out one Session per courier and serializes access to it.
// Workflow mutations are synchronous reactions to single user actions, so a
// plain mutex around each call is all the coordination the core needs.
type Manager struct {
	mu         sync.Mutex
	sessions   map[uint]*Session
	shiftStart string
}

func NewManager(shiftStart string) *Manager {
	if shiftStart == "" {
		shiftStart = "08:00"
	}
	return &Manager{
		sessions:   make(map[uint]*Session),
		shiftStart: shiftStart,
	}
}

// Session returns the courier's live session, creating an ABSENT one on first
// use.
func (m *Manager) Session(userID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = NewSession(userID)
		s.ShiftStart = m.shiftStart
		m.sessions[userID] = s
	}
	return s
}

// Do runs fn against the courier's session under the manager's lock, keeping
// each workflow mutation atomic with respect to other requests.
func (m *Manager) Do(userID uint, fn func(*Session) error) error {
	s := m.Session(userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(s)
}
