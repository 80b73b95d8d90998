package pets

import (
	"context"
	"errors"
)

// ErrShortIDTaken lo devuelve el repo cuando el short id ya existe.
// El service reintenta con otro; nunca llega al usuario.
var ErrShortIDTaken = errors.New("short id already taken")

type Repository interface {
	// CreateWithinQuota cuenta las mascotas del dueño e inserta solo si count < max,
	// de forma atómica. Sobre la cuota devuelve *apperr.QuotaError.
	CreateWithinQuota(ctx context.Context, p Pet, max int) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	GetByShortID(ctx context.Context, shortID string) (Pet, error)
	// ListByOwner devuelve las mascotas del dueño, más nuevas primero.
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
	CountByOwner(ctx context.Context, ownerUserID string) (int, error)
}
