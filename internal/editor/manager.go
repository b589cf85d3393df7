package editor

import "sync"

// Manager hands out one session per project and serializes access to
// it. Sessions themselves are single-threaded; callers that need a
// consistent multi-step view use With.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	mu      sync.Mutex
	session *Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*managedSession)}
}

// With runs fn with exclusive access to the project's session, creating
// the session on first use.
func (m *Manager) With(projectID string, fn func(*Session)) {
	m.mu.Lock()
	ms, ok := m.sessions[projectID]
	if !ok {
		ms = &managedSession{session: NewSession(projectID)}
		m.sessions[projectID] = ms
	}
	m.mu.Unlock()

	ms.mu.Lock()
	defer ms.mu.Unlock()
	fn(ms.session)
}

// Close discards a project's session, releasing its history.
func (m *Manager) Close(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, projectID)
}
