package memory

import (
	"context"
	"sync"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
)

// SessionStore keeps sessions in process memory. Sessions are lost on
// restart; it serves local development and tests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Save(_ context.Context, clientID string, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[clientID] = session
	return nil
}

func (s *SessionStore) Load(_ context.Context, clientID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[clientID]
	if !ok || session.Token == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Clear(_ context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, clientID)
	return nil
}
