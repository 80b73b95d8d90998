package local

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyRotated: RotateSession perdió la carrera, otra request ya rotó esa sesión.
var ErrAlreadyRotated = errors.New("refresh session already rotated")

// User es la cuenta local (credenciales). El perfil visible vive en profiles.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshSession es la sesión revocable detrás de un refresh token.
// ReplacedBy apunta a la sesión que la reemplazó al rotar (vacío si fue un logout).
type RefreshSession struct {
	ID         string
	UserID     string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy string
	CreatedAt  time.Time
}

func (s RefreshSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// UserStore persiste cuentas. CreateUser devuelve auth.ErrEmailTaken si el email existe;
// los lookups devuelven apperr.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, s RefreshSession) error
	GetSession(ctx context.Context, id string) (RefreshSession, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
	// RotateSession crea next y revoca id apuntando a next, todo o nada.
	// Si id ya estaba revocada devuelve ErrAlreadyRotated y no crea nada.
	RotateSession(ctx context.Context, id string, next RefreshSession, at time.Time) error
}

// Store junta ambos; memory y postgres implementan los dos en un solo tipo.
type Store interface {
	UserStore
	SessionStore
}
