package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/ipe/vm"
)

// Session is one remote evaluation session: a vm.Session and the worker
// that owns it.
type Session struct {
	ID      string
	Name    string
	Created time.Time

	worker *SessionWorker
}

// Worker returns the goroutine serializing access to the session.
func (s *Session) Worker() *SessionWorker { return s.worker }

// SessionStore manages evaluation sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     vm.Options
}

// NewSessionStore creates a store whose sessions evaluate with opts.
func NewSessionStore(opts vm.Options) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// Create starts a new session with an optional name.
func (s *SessionStore) Create(name string) *Session {
	session := &Session{
		ID:      uuid.NewString(),
		Name:    name,
		Created: time.Now(),
		worker:  NewSessionWorker(vm.NewSession(s.opts)),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return session
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Destroy stops and removes a session. It reports whether the session existed.
func (s *SessionStore) Destroy(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		session.worker.Stop()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close destroys every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.worker.Stop()
	}
}
