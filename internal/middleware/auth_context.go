package middleware

import (
	"context"
	"net/http"
	"strings"

	"petguard/internal/ports/auth"
	"petguard/internal/session"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// DebugUserHeader inyecta un usuario sin sesión (solo dev / tests).
const DebugUserHeader = "X-Debug-User-ID"

type AuthOptions struct {
	// Sessions resuelve la cookie de sesión; puede ser nil.
	Sessions *session.Adapter
	Cookies  session.CookieCodec
	// Verifier valida Authorization: Bearer; puede ser nil.
	Verifier auth.AuthVerifier
	// DevHeader habilita X-Debug-User-ID.
	DevHeader bool
}

// AuthContext:
// - Si el route guard ya puso claims, no hace nada.
// - Cookie de sesión => GetSession (si refrescó, reescribe cookies).
// - Bearer token => Verify().
// - Modo dev => header X-Debug-User-ID.
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetClaims(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			if opts.Sessions != nil {
				if tokens := opts.Cookies.ReadTokens(r); !tokens.Empty() {
					res := opts.Sessions.GetSession(r.Context(), tokens)
					if res.Refreshed != nil {
						opts.Cookies.WriteTokens(w, r, *res.Refreshed)
					}
					if res.Authenticated() {
						next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), res.Session.Claims())))
						return
					}
				}
			}

			if opts.Verifier != nil {
				if token := bearerToken(r.Header.Get("Authorization")); token != "" {
					claims, err := opts.Verifier.Verify(r.Context(), token)
					if err == nil && strings.TrimSpace(claims.UserID) != "" {
						next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
						return
					}
					// No cortamos aquí. El handler decide 401/403.
				}
			}

			if opts.DevHeader {
				if uid := strings.TrimSpace(r.Header.Get(DebugUserHeader)); uid != "" {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), auth.Claims{UserID: uid})))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
