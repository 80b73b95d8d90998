package auth

import (
	"strings"
	"time"
)

// Claims representa la información del usuario autenticado que viaja en el contexto.
type Claims struct {
	UserID string
	Email  string
}

// Tokens son los valores que el proveedor guarda en cookies del navegador.
type Tokens struct {
	Access    string
	Refresh   string
	ExpiresAt time.Time
}

func (t Tokens) Empty() bool {
	return strings.TrimSpace(t.Access) == "" && strings.TrimSpace(t.Refresh) == ""
}

// Session es la prueba verificable de que el request actúa por un usuario.
// Efímera: nunca se persiste fuera del mecanismo de cookies del proveedor.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Valid: autenticado sii la sesión no expiró y resuelve a un user id.
func (s Session) Valid(now time.Time) bool {
	if strings.TrimSpace(s.UserID) == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func (s Session) Claims() Claims {
	return Claims{UserID: s.UserID, Email: s.Email}
}

type Credentials struct {
	Email    string
	Password string
}

// SignUpInput incluye los datos que terminan en el perfil de la cuenta.
type SignUpInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// EventType son las transiciones que reporta el proveedor.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
)

type Event struct {
	Type   EventType
	UserID string
	At     time.Time
}
