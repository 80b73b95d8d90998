package pets

import (
	"context"

	"petguard/internal/platform/apperr"
)

// OwnerOf expone el dueño de una mascota (lo usa reports para scopear lecturas).
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// owned trae la mascota solo si pertenece a ownerUserID.
// Una mascota ajena se reporta como inexistente.
func (s *Service) owned(ctx context.Context, ownerUserID, petID string) (Pet, error) {
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if p.OwnerUserID != ownerUserID {
		return Pet{}, apperr.ErrNotFound
	}
	return p, nil
}
