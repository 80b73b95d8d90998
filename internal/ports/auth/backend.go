package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionExpired     = errors.New("session expired")
)

// Backend es el servicio de autenticación/sesión (local o hospedado).
// Las implementaciones pueden fallar; el adapter de sesión es quien falla cerrado.
type Backend interface {
	// Resolve valida los tokens. Si el backend tuvo que refrescarlos devuelve
	// los nuevos en el segundo valor (nil si no hubo refresh).
	Resolve(ctx context.Context, tokens Tokens) (Session, *Tokens, error)
	SignIn(ctx context.Context, in Credentials) (Session, Tokens, error)
	SignUp(ctx context.Context, in SignUpInput) (Session, Tokens, error)
	// SignOut cierra la sesión y devuelve el user id dueño de los tokens
	// ("" si no se pudo determinar). No debe refrescar ni emitir tokens.
	SignOut(ctx context.Context, tokens Tokens) (userID string, err error)
}
