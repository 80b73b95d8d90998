package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"petguard/internal/domain/profiles"
	"petguard/internal/platform/apperr"
)

type profileRepo struct {
	mu     sync.RWMutex
	byUser map[string]profiles.Profile
}

func NewProfileRepo() profiles.Repository {
	return &profileRepo{
		byUser: make(map[string]profiles.Profile),
	}
}

func (r *profileRepo) Create(ctx context.Context, p profiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("profile user id required")
	}
	if _, exists := r.byUser[p.UserID]; exists {
		return profiles.ErrAlreadyExists
	}
	r.byUser[p.UserID] = p
	return nil
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (profiles.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byUser[userID]
	if !ok {
		return profiles.Profile{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *profileRepo) Update(ctx context.Context, p profiles.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[p.UserID]
	if !ok {
		return apperr.ErrNotFound
	}
	p.ID = current.ID
	p.CreatedAt = current.CreatedAt
	r.byUser[p.UserID] = p
	return nil
}

// SetMaxPets cambia la cuota de un usuario (el plan se administra fuera de la app).
func SetMaxPets(repo profiles.Repository, userID string, max int) error {
	r, ok := repo.(*profileRepo)
	if !ok {
		return errors.New("not a memory profile repo")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUser[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	p.MaxPets = max
	r.byUser[userID] = p
	return nil
}
