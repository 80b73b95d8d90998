package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"petguard/internal/domain/pets"
	"petguard/internal/platform/apperr"
)

type petRepo struct {
	mu        sync.RWMutex
	byID      map[string]pets.Pet
	byShortID map[string]string
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID:      make(map[string]pets.Pet),
		byShortID: make(map[string]string),
	}
}

// CreateWithinQuota cuenta e inserta bajo el mismo lock.
func (r *petRepo) CreateWithinQuota(ctx context.Context, p pets.Pet, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	if _, taken := r.byShortID[p.ShortID]; taken {
		return pets.ErrShortIDTaken
	}

	n := r.countLocked(p.OwnerUserID)
	if n >= max {
		return &apperr.QuotaError{Current: n, Max: max}
	}

	r.byID[p.ID] = p
	r.byShortID[p.ShortID] = p.ID
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	current, exists := r.byID[p.ID]
	if !exists {
		return apperr.ErrNotFound
	}
	// short id y dueño no se modifican
	p.ShortID = current.ShortID
	p.OwnerUserID = current.OwnerUserID
	p.CreatedAt = current.CreatedAt
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) GetByShortID(ctx context.Context, shortID string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byShortID[shortID]
	if !ok {
		return pets.Pet{}, apperr.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *petRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			out = append(out, p)
		}
	}

	// más nuevas primero; desempate por id para orden estable
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *petRepo) CountByOwner(ctx context.Context, ownerUserID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.countLocked(ownerUserID), nil
}

func (r *petRepo) countLocked(ownerUserID string) int {
	n := 0
	for _, p := range r.byID {
		if p.OwnerUserID == ownerUserID {
			n++
		}
	}
	return n
}
