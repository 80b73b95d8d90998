package gotrue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"petguard/internal/ports/auth"
)

// refreshLeeway: con menos de esto de vida el access se refresca antes de usarlo.
const refreshLeeway = 30 * time.Second

// Backend implementa auth.Backend contra el servicio hospedado.
type Backend struct {
	client *Client
	now    func() time.Time
}

func NewBackend(client *Client) *Backend {
	return &Backend{client: client, now: time.Now}
}

// Resolve valida el access con GET /user. Si venció, está por vencer o el
// servicio lo rechaza, intenta el refresh_token grant.
func (b *Backend) Resolve(ctx context.Context, t auth.Tokens) (auth.Session, *auth.Tokens, error) {
	if b == nil || b.client == nil {
		return auth.Session{}, nil, ErrNotConfigured
	}

	access := strings.TrimSpace(t.Access)
	if access != "" && !b.expiringSoon(access) {
		u, err := b.client.getUser(ctx, access)
		if err == nil {
			return b.session(u, access), nil, nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return auth.Session{}, nil, err
		}
	}

	if strings.TrimSpace(t.Refresh) == "" {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	tr, err := b.client.refreshGrant(ctx, t.Refresh)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return auth.Session{}, nil, auth.ErrSessionExpired
		}
		return auth.Session{}, nil, err
	}
	tokens := b.tokens(tr)
	s := auth.Session{UserID: tr.User.ID, Email: tr.User.Email, ExpiresAt: tokens.ExpiresAt}
	return s, &tokens, nil
}

func (b *Backend) SignIn(ctx context.Context, in auth.Credentials) (auth.Session, auth.Tokens, error) {
	tr, err := b.client.passwordGrant(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return auth.Session{}, auth.Tokens{}, auth.ErrInvalidCredentials
		}
		return auth.Session{}, auth.Tokens{}, err
	}
	tokens := b.tokens(tr)
	return auth.Session{UserID: tr.User.ID, Email: tr.User.Email, ExpiresAt: tokens.ExpiresAt}, tokens, nil
}

// SignUp: si el servicio exige confirmar el email, vuelve sin tokens.
func (b *Backend) SignUp(ctx context.Context, in auth.SignUpInput) (auth.Session, auth.Tokens, error) {
	tr, err := b.client.signUp(ctx, in.Email, in.Password, map[string]any{
		"full_name": in.FullName,
		"phone":     in.Phone,
	})
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return auth.Session{}, auth.Tokens{}, auth.ErrEmailTaken
		}
		return auth.Session{}, auth.Tokens{}, err
	}
	var tokens auth.Tokens
	if tr.AccessToken != "" {
		tokens = b.tokens(tr)
	}
	return auth.Session{UserID: tr.User.ID, Email: tr.User.Email, ExpiresAt: tokens.ExpiresAt}, tokens, nil
}

// SignOut toma el user id del subject del access token, sin ir al servidor.
func (b *Backend) SignOut(ctx context.Context, t auth.Tokens) (string, error) {
	access := strings.TrimSpace(t.Access)
	if access == "" {
		return "", nil
	}
	userID := subject(access)
	err := b.client.logout(ctx, access)
	if errors.Is(err, ErrUnauthorized) {
		// el token ya no vale: no queda sesión que cerrar
		return userID, nil
	}
	return userID, err
}

// Verify implementa auth.AuthVerifier para Authorization: Bearer.
func (b *Backend) Verify(ctx context.Context, token string) (auth.Claims, error) {
	u, err := b.client.getUser(ctx, strings.TrimSpace(token))
	if err != nil {
		return auth.Claims{}, err
	}
	return auth.Claims{UserID: u.ID, Email: u.Email}, nil
}

func (b *Backend) tokens(tr tokenResponse) auth.Tokens {
	exp := time.Time{}
	switch {
	case tr.ExpiresAt > 0:
		exp = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		exp = b.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return auth.Tokens{Access: tr.AccessToken, Refresh: tr.RefreshToken, ExpiresAt: exp}
}

func (b *Backend) session(u user, access string) auth.Session {
	s := auth.Session{UserID: u.ID, Email: u.Email}
	if exp, ok := expiry(access); ok {
		s.ExpiresAt = exp
	}
	return s
}

// expiringSoon lee exp sin verificar la firma (eso lo hace el servicio).
func (b *Backend) expiringSoon(access string) bool {
	exp, ok := expiry(access)
	if !ok {
		return false
	}
	return b.now().Add(refreshLeeway).After(exp)
}

func subject(access string) string {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return ""
	}
	return claims.Subject
}

func expiry(access string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(access, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
