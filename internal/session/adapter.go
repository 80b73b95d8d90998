package session

import (
	"context"
	"strings"
	"time"

	"petguard/internal/platform/apperr"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
	"petguard/internal/ports/auth"
)

const defaultResolveTimeout = 3 * time.Second

// Resolution es el resultado de GetSession. Session nil => no autenticado.
type Resolution struct {
	Session   *auth.Session
	Refreshed *auth.Tokens
}

func (r Resolution) Authenticated() bool { return r.Session != nil }

// Provisioner crea el perfil de la cuenta recién registrada (max_pets por defecto).
type Provisioner interface {
	Provision(ctx context.Context, userID, email string, in auth.SignUpInput) error
}

// Adapter envuelve el backend de auth y falla cerrado.
type Adapter struct {
	backend     auth.Backend
	provisioner Provisioner
	hub         *Hub
	log         logger.Logger
	timeout     time.Duration
	now         func() time.Time
}

type Options struct {
	Backend        auth.Backend
	Provisioner    Provisioner
	Hub            *Hub
	Logger         logger.Logger
	ResolveTimeout time.Duration
}

func NewAdapter(opts Options) *Adapter {
	hub := opts.Hub
	if hub == nil {
		hub = NewHub()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	timeout := opts.ResolveTimeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	return &Adapter{
		backend:     opts.Backend,
		provisioner: opts.Provisioner,
		hub:         hub,
		log:         log.With(map[string]any{"component": "session"}),
		timeout:     timeout,
		now:         time.Now,
	}
}

// GetSession nunca devuelve error: cualquier falla de transporte o de token => sin sesión.
func (a *Adapter) GetSession(ctx context.Context, tokens auth.Tokens) Resolution {
	if a == nil || a.backend == nil || tokens.Empty() {
		metrics.SessionResolutions.WithLabelValues("none").Inc()
		return Resolution{}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	s, refreshed, err := a.backend.Resolve(ctx, tokens)
	if err != nil {
		metrics.SessionResolutions.WithLabelValues("failure").Inc()
		a.log.Debug("session resolution failed", map[string]any{
			"error": apperr.Wrap(apperr.ErrAuthResolution, err.Error()),
		})
		return Resolution{}
	}
	if !s.Valid(a.now()) {
		metrics.SessionResolutions.WithLabelValues("none").Inc()
		return Resolution{}
	}

	if refreshed != nil {
		metrics.SessionResolutions.WithLabelValues("refreshed").Inc()
		a.hub.Publish(auth.Event{Type: auth.EventTokenRefreshed, UserID: s.UserID, At: a.now()})
	} else {
		metrics.SessionResolutions.WithLabelValues("ok").Inc()
	}
	return Resolution{Session: &s, Refreshed: refreshed}
}

func (a *Adapter) SignIn(ctx context.Context, in auth.Credentials) (auth.Session, auth.Tokens, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" {
		return auth.Session{}, auth.Tokens{}, apperr.Invalid("credentials", "email and password are required")
	}

	s, t, err := a.backend.SignIn(ctx, in)
	if err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}
	a.hub.Publish(auth.Event{Type: auth.EventSignedIn, UserID: s.UserID, At: a.now()})
	return s, t, nil
}

func (a *Adapter) SignUp(ctx context.Context, in auth.SignUpInput) (auth.Session, auth.Tokens, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return auth.Session{}, auth.Tokens{}, apperr.Invalid("email", "a valid email is required")
	}
	if len(in.Password) < 6 {
		return auth.Session{}, auth.Tokens{}, apperr.Invalid("password", "must have at least 6 characters")
	}

	s, t, err := a.backend.SignUp(ctx, in)
	if err != nil {
		return auth.Session{}, auth.Tokens{}, err
	}
	if a.provisioner != nil {
		if err := a.provisioner.Provision(ctx, s.UserID, in.Email, in); err != nil {
			a.log.Error("profile provisioning failed", map[string]any{"user_id": s.UserID, "error": err})
			return auth.Session{}, auth.Tokens{}, err
		}
	}
	if !t.Empty() {
		a.hub.Publish(auth.Event{Type: auth.EventSignedIn, UserID: s.UserID, At: a.now()})
	}
	return s, t, nil
}

// SignOut termina recién cuando el backend confirmó (o falló); el caller navega después.
// El evento SIGNED_OUT se publica siempre que haya un usuario identificable,
// para que las otras pestañas abiertas se enteren aunque el backend haya fallado.
func (a *Adapter) SignOut(ctx context.Context, tokens auth.Tokens) error {
	if tokens.Empty() {
		return nil
	}

	userID, err := a.backend.SignOut(ctx, tokens)
	if userID != "" {
		a.hub.Publish(auth.Event{Type: auth.EventSignedOut, UserID: userID, At: a.now()})
	}
	return err
}

// OnSessionChange registra un observador de transiciones de sesión.
func (a *Adapter) OnSessionChange(handler func(auth.Event)) (unsubscribe func()) {
	return a.hub.Subscribe(handler)
}
