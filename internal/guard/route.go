package guard

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"petguard/internal/middleware"
	"petguard/internal/platform/logger"
	"petguard/internal/platform/metrics"
	"petguard/internal/ports/auth"
	"petguard/internal/session"
)

type Mode string

const (
	ModeSession     Mode = "session"
	ModeMaintenance Mode = "maintenance"
	ModeBasic       Mode = "basic"
)

const (
	DefaultRetryAfter = time.Hour
	DefaultRealm      = "PetGuard"
)

var ErrUnknownMode = errors.New("guard: unknown mode")

// SessionResolver es lo único que el route guard necesita del session adapter.
type SessionResolver interface {
	GetSession(ctx context.Context, tokens auth.Tokens) session.Resolution
}

type BasicCredentials struct {
	Username string
	Password string
	Realm    string
}

type RouteOptions struct {
	Mode     Mode
	Policy   Policy
	Sessions SessionResolver
	Cookies  session.CookieCodec

	RetryAfter time.Duration
	Basic      BasicCredentials

	Logger logger.Logger
}

// RouteGuard es un middleware por request; solo guarda configuración inmutable.
type RouteGuard struct {
	mode       Mode
	policy     Policy
	sessions   SessionResolver
	cookies    session.CookieCodec
	retryAfter time.Duration
	basic      BasicCredentials
	log        logger.Logger
}

func NewRouteGuard(opts RouteOptions) (*RouteGuard, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	g := &RouteGuard{
		mode:       opts.Mode,
		policy:     opts.Policy,
		sessions:   opts.Sessions,
		cookies:    opts.Cookies,
		retryAfter: opts.RetryAfter,
		basic:      opts.Basic,
		log:        log.With(map[string]any{"component": "route_guard", "mode": string(opts.Mode)}),
	}

	switch g.mode {
	case ModeSession:
		if g.sessions == nil {
			return nil, errors.New("guard: session mode requires a session resolver")
		}
	case ModeMaintenance:
		if g.retryAfter <= 0 {
			g.retryAfter = DefaultRetryAfter
		}
	case ModeBasic:
		if g.basic.Username == "" || g.basic.Password == "" {
			return nil, errors.New("guard: basic mode requires username and password")
		}
		if g.basic.Realm == "" {
			g.basic.Realm = DefaultRealm
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opts.Mode)
	}
	return g, nil
}

func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	switch g.mode {
	case ModeMaintenance:
		return http.HandlerFunc(g.maintenance)
	case ModeBasic:
		return g.basicAuth(next)
	default:
		return g.sessionGuard(next)
	}
}

func (g *RouteGuard) sessionGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := g.policy.Classify(r.URL.Path)
		if class == PathOther {
			next.ServeHTTP(w, r)
			return
		}

		res := g.sessions.GetSession(r.Context(), g.cookies.ReadTokens(r))
		if res.Refreshed != nil {
			// response y request: el resto de este request ve la sesión nueva
			g.cookies.WriteTokens(w, r, *res.Refreshed)
		}

		action := Decide(class, res.Authenticated())
		g.record(r, class, action)

		if action != Continue {
			http.Redirect(w, r, g.policy.Location(action), http.StatusFound)
			return
		}
		if res.Authenticated() {
			r = r.WithContext(middleware.WithClaims(r.Context(), res.Session.Claims()))
		}
		next.ServeHTTP(w, r)
	})
}

const maintenanceHTML = `<!DOCTYPE html>
<html lang="es">
<head><meta charset="utf-8"><title>PetGuard - En mantenimiento</title></head>
<body>
<h1>Estamos en mantenimiento</h1>
<p>PetGuard vuelve en breve. Gracias por tu paciencia.</p>
</body>
</html>
`

func (g *RouteGuard) maintenance(w http.ResponseWriter, r *http.Request) {
	metrics.GuardDecisions.WithLabelValues("route", "maintenance").Inc()

	h := w.Header()
	h.Set("Retry-After", strconv.Itoa(int(g.retryAfter/time.Second)))
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(maintenanceHTML))
}

func (g *RouteGuard) basicAuth(next http.Handler) http.Handler {
	user := []byte(g.basic.Username)
	pass := []byte(g.basic.Password)
	challenge := fmt.Sprintf("Basic realm=%q", g.basic.Realm)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		// ambas comparaciones corren siempre
		userOK := subtle.ConstantTimeCompare([]byte(u), user) == 1
		passOK := subtle.ConstantTimeCompare([]byte(p), pass) == 1
		if !ok || !userOK || !passOK {
			metrics.GuardDecisions.WithLabelValues("route", "basic_challenge").Inc()
			w.Header().Set("WWW-Authenticate", challenge)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		metrics.GuardDecisions.WithLabelValues("route", "basic_ok").Inc()
		next.ServeHTTP(w, r)
	})
}

func (g *RouteGuard) record(r *http.Request, class PathClass, action Action) {
	metrics.GuardDecisions.WithLabelValues("route", action.String()).Inc()
	if !g.policy.Debug {
		return
	}
	g.log.Debug("route guard decision", map[string]any{
		"path":   r.URL.Path,
		"class":  class.String(),
		"action": action.String(),
	})
}
