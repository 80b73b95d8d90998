// Package local implementa el backend de sesión propio: JWT HS256 + bcrypt,
// con sesiones de refresh revocables.
package local

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

var ErrSecretsMissing = errors.New("jwt secrets must be provided")

// maxRotationHops acota la cadena de sesiones hijas que revoca SignOut.
const maxRotationHops = 8

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// ReuseInterval: ventana en la que un refresh recién rotado todavía se acepta
	// (pestañas o requests concurrentes con el mismo par de cookies).
	ReuseInterval time.Duration
	BcryptCost    int
}

type Backend struct {
	cfg      Config
	users    UserStore
	sessions SessionStore
	now      func() time.Time
}

func New(cfg Config, users UserStore, sessions SessionStore) (*Backend, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" || strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, ErrSecretsMissing
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.ReuseInterval <= 0 {
		cfg.ReuseInterval = 10 * time.Second
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Backend{cfg: cfg, users: users, sessions: sessions, now: time.Now}, nil
}

// WithClock fija el reloj (tests).
func (b *Backend) WithClock(now func() time.Time) *Backend {
	b.now = now
	return b
}

func (b *Backend) SignUp(ctx context.Context, in auth.SignUpInput) (auth.Session, auth.Tokens, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), b.cfg.BcryptCost)
	if err != nil {
		return auth.Session{}, auth.Tokens{}, apperr.Invalid("password", err.Error())
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    b.now().UTC(),
	}
	if err := b.users.CreateUser(ctx, u); err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}
	return b.issue(ctx, u)
}

func (b *Backend) SignIn(ctx context.Context, in auth.Credentials) (auth.Session, auth.Tokens, error) {
	u, err := b.users.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return auth.Session{}, auth.Tokens{}, auth.ErrInvalidCredentials
		}
		return auth.Session{}, auth.Tokens{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return auth.Session{}, auth.Tokens{}, auth.ErrInvalidCredentials
	}
	return b.issue(ctx, u)
}

// Resolve acepta un access válido; si expiró, rota usando el refresh token.
func (b *Backend) Resolve(ctx context.Context, t auth.Tokens) (auth.Session, *auth.Tokens, error) {
	if strings.TrimSpace(t.Access) != "" {
		c, err := parse(b.cfg.AccessSecret, t.Access, tokenTypeAccess, b.now)
		if err == nil {
			if sid := c.SID; sid != "" {
				rs, err := b.sessions.GetSession(ctx, sid)
				if err != nil || !rs.Active(b.now()) {
					return auth.Session{}, nil, auth.ErrSessionExpired
				}
			}
			return sessionFrom(c), nil, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) && strings.TrimSpace(t.Refresh) == "" {
			return auth.Session{}, nil, err
		}
	}
	if strings.TrimSpace(t.Refresh) == "" {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	return b.refresh(ctx, t.Refresh)
}

func (b *Backend) refresh(ctx context.Context, raw string) (auth.Session, *auth.Tokens, error) {
	c, err := parse(b.cfg.RefreshSecret, raw, tokenTypeRefresh, b.now)
	if err != nil {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	rs, err := b.getSession(ctx, c.ID)
	if err != nil {
		return auth.Session{}, nil, err
	}
	if rs.UserID != c.Subject {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	if rs.RevokedAt != nil {
		return b.reuse(ctx, rs)
	}

	now := b.now().UTC()
	if !rs.Active(now) {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	u, err := b.users.UserByID(ctx, rs.UserID)
	if err != nil {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}

	next := b.newSession(u.ID, now)
	err = b.sessions.RotateSession(ctx, rs.ID, next, now)
	if errors.Is(err, ErrAlreadyRotated) {
		// otra request rotó primero: se comparte su sesión hija
		if rs, err = b.getSession(ctx, rs.ID); err != nil {
			return auth.Session{}, nil, err
		}
		return b.reuse(ctx, rs)
	}
	if err != nil {
		return auth.Session{}, nil, err
	}

	s, tokens, err := b.tokensFor(u, next)
	if err != nil {
		return auth.Session{}, nil, err
	}
	return s, &tokens, nil
}

// reuse reemite tokens de la sesión hija si rs se rotó hace menos de ReuseInterval.
// Una sesión revocada por logout (sin hija) o rotada hace más tiempo no vale.
func (b *Backend) reuse(ctx context.Context, rs RefreshSession) (auth.Session, *auth.Tokens, error) {
	if rs.RevokedAt == nil || rs.ReplacedBy == "" || b.now().Sub(*rs.RevokedAt) > b.cfg.ReuseInterval {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	child, err := b.getSession(ctx, rs.ReplacedBy)
	if err != nil {
		return auth.Session{}, nil, err
	}
	if !child.Active(b.now()) || child.UserID != rs.UserID {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	u, err := b.users.UserByID(ctx, child.UserID)
	if err != nil {
		return auth.Session{}, nil, auth.ErrSessionExpired
	}
	s, tokens, err := b.tokensFor(u, child)
	if err != nil {
		return auth.Session{}, nil, err
	}
	return s, &tokens, nil
}

// getSession traduce NotFound a sesión expirada; el resto de errores sigue de largo.
func (b *Backend) getSession(ctx context.Context, id string) (RefreshSession, error) {
	rs, err := b.sessions.GetSession(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return RefreshSession{}, auth.ErrSessionExpired
	}
	return rs, err
}

// SignOut revoca la sesión de refresh y las hijas que haya dejado una rotación,
// y devuelve el usuario dueño. Tokens ilegibles no son error: ya no hay sesión.
// No rota ni emite tokens.
func (b *Backend) SignOut(ctx context.Context, t auth.Tokens) (string, error) {
	var sid, userID string
	if c, err := parse(b.cfg.RefreshSecret, t.Refresh, tokenTypeRefresh, b.now); err == nil {
		sid, userID = c.ID, c.Subject
	} else if c, err := parse(b.cfg.AccessSecret, t.Access, tokenTypeAccess, b.now); err == nil {
		sid, userID = c.SID, c.Subject
	}
	if sid == "" {
		return "", nil
	}

	at := b.now().UTC()
	for hops := 0; sid != "" && hops < maxRotationHops; hops++ {
		rs, err := b.sessions.GetSession(ctx, sid)
		if errors.Is(err, apperr.ErrNotFound) {
			return userID, nil
		}
		if err != nil {
			return userID, err
		}
		if err := b.sessions.RevokeSession(ctx, sid, at); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return userID, err
		}
		sid = rs.ReplacedBy
	}
	return userID, nil
}

// Verify implementa auth.AuthVerifier para clientes con bearer token.
func (b *Backend) Verify(ctx context.Context, token string) (auth.Claims, error) {
	s, _, err := b.Resolve(ctx, auth.Tokens{Access: strings.TrimSpace(token)})
	if err != nil {
		return auth.Claims{}, err
	}
	return s.Claims(), nil
}

func (b *Backend) issue(ctx context.Context, u User) (auth.Session, auth.Tokens, error) {
	rs := b.newSession(u.ID, b.now().UTC())
	if err := b.sessions.CreateSession(ctx, rs); err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}
	return b.tokensFor(u, rs)
}

func (b *Backend) newSession(userID string, now time.Time) RefreshSession {
	return RefreshSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(b.cfg.RefreshTTL),
		CreatedAt: now,
	}
}

// tokensFor firma el par access/refresh para una sesión ya persistida.
func (b *Backend) tokensFor(u User, rs RefreshSession) (auth.Session, auth.Tokens, error) {
	now := b.now().UTC()
	accessExp := now.Add(b.cfg.AccessTTL)
	access, err := sign(b.cfg.AccessSecret, tokenClaims{
		Email: u.Email,
		Type:  tokenTypeAccess,
		SID:   rs.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}
	refresh, err := sign(b.cfg.RefreshSecret, tokenClaims{
		Type: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        rs.ID,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(rs.ExpiresAt),
		},
	})
	if err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}

	s := auth.Session{UserID: u.ID, Email: u.Email, ExpiresAt: rs.ExpiresAt}
	return s, auth.Tokens{Access: access, Refresh: refresh, ExpiresAt: accessExp}, nil
}

func sessionFrom(c *tokenClaims) auth.Session {
	s := auth.Session{UserID: c.Subject, Email: c.Email}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
