package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"petguard/internal/adapters/auth/local"
	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

// AuthStore implementa local.UserStore y local.SessionStore.
type AuthStore struct {
	mu       sync.RWMutex
	users    map[string]local.User
	byEmail  map[string]string
	sessions map[string]local.RefreshSession
}

func NewAuthStore() *AuthStore {
	return &AuthStore{
		users:    make(map[string]local.User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]local.RefreshSession),
	}
}

func (s *AuthStore) CreateUser(ctx context.Context, u local.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	email := strings.ToLower(u.Email)
	if _, taken := s.byEmail[email]; taken {
		return auth.ErrEmailTaken
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	return nil
}

func (s *AuthStore) UserByEmail(ctx context.Context, email string) (local.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return local.User{}, apperr.ErrNotFound
	}
	return s.users[id], nil
}

func (s *AuthStore) UserByID(ctx context.Context, id string) (local.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return local.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (s *AuthStore) CreateSession(ctx context.Context, rs local.RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[rs.ID]; exists {
		return errors.New("session already exists")
	}
	s.sessions[rs.ID] = rs
	return nil
}

func (s *AuthStore) GetSession(ctx context.Context, id string) (local.RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.sessions[id]
	if !ok {
		return local.RefreshSession{}, apperr.ErrNotFound
	}
	return rs, nil
}

func (s *AuthStore) RevokeSession(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.sessions[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if rs.RevokedAt == nil {
		rs.RevokedAt = &at
		s.sessions[id] = rs
	}
	return nil
}

func (s *AuthStore) RotateSession(ctx context.Context, id string, next local.RefreshSession, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs, ok := s.sessions[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if rs.RevokedAt != nil {
		return local.ErrAlreadyRotated
	}
	if _, exists := s.sessions[next.ID]; exists {
		return errors.New("session already exists")
	}
	s.sessions[next.ID] = next
	rs.RevokedAt = &at
	rs.ReplacedBy = next.ID
	s.sessions[id] = rs
	return nil
}

// SessionCount cuenta las sesiones de refresh guardadas (activas o no).
func (s *AuthStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
