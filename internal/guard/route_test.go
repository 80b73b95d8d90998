package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/middleware"
	"petguard/internal/ports/auth"
	"petguard/internal/session"
)

type stubResolver struct {
	calls     atomic.Int32
	userID    string
	refreshed *auth.Tokens
}

func (s *stubResolver) GetSession(_ context.Context, tokens auth.Tokens) session.Resolution {
	s.calls.Add(1)
	if s.userID == "" || tokens.Empty() {
		return session.Resolution{}
	}
	return session.Resolution{
		Session:   &auth.Session{UserID: s.userID, Email: s.userID + "@example.com", ExpiresAt: time.Now().Add(time.Hour)},
		Refreshed: s.refreshed,
	}
}

func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := middleware.GetClaims(r.Context()); ok {
			w.Header().Set("X-User", c.UserID)
		}
		if ck, err := r.Cookie(session.AccessCookie); err == nil {
			w.Header().Set("X-Seen-Access", ck.Value)
		}
		_, _ = w.Write([]byte("page"))
	})
}

func newSessionGuard(t *testing.T, res *stubResolver) http.Handler {
	t.Helper()
	g, err := NewRouteGuard(RouteOptions{
		Mode:     ModeSession,
		Policy:   DefaultPolicy(),
		Sessions: res,
	})
	require.NoError(t, err)
	return g.Middleware(okHandler(t))
}

func withSessionCookie(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.AccessCookie, Value: "access-1"})
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "refresh-1"})
	return req
}

func TestSessionGuard_AnonymousDashboardRedirectsToLogin(t *testing.T) {
	h := newSessionGuard(t, &stubResolver{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "page")
}

func TestSessionGuard_AuthenticatedLoginRedirectsToLanding(t *testing.T) {
	h := newSessionGuard(t, &stubResolver{userID: "u1"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/auth/login", nil)))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestSessionGuard_AuthenticatedDashboardContinuesWithClaims(t *testing.T) {
	h := newSessionGuard(t, &stubResolver{userID: "u1"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard/reports", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Header().Get("X-User"))
}

func TestSessionGuard_OtherPathsSkipResolution(t *testing.T) {
	res := &stubResolver{}
	h := newSessionGuard(t, res)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pet/AB12CD", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(0), res.calls.Load())
}

func TestSessionGuard_RefreshedCookiesReachResponseAndRequest(t *testing.T) {
	res := &stubResolver{userID: "u1", refreshed: &auth.Tokens{Access: "access-2", Refresh: "refresh-2"}}
	h := newSessionGuard(t, res)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	// el handler downstream ya ve el token nuevo
	assert.Equal(t, "access-2", rec.Header().Get("X-Seen-Access"))

	var access string
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.AccessCookie {
			access = c.Value
		}
	}
	assert.Equal(t, "access-2", access)
}

func TestMaintenanceGuard_AllPathsReturn503WithoutBackendCalls(t *testing.T) {
	res := &stubResolver{userID: "u1"}
	g, err := NewRouteGuard(RouteOptions{
		Mode:       ModeMaintenance,
		Policy:     DefaultPolicy(),
		Sessions:   res,
		RetryAfter: time.Hour,
	})
	require.NoError(t, err)
	h := g.Middleware(okHandler(t))

	for _, path := range []string{"/", "/dashboard", "/auth/login", "/api/pet/AB12CD", "/health"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withSessionCookie(httptest.NewRequest(http.MethodGet, path, nil)))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "3600", rec.Header().Get("Retry-After"), path)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"), path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"), path)
		assert.Contains(t, rec.Body.String(), "mantenimiento")
	}
	assert.Equal(t, int32(0), res.calls.Load())
}

func TestBasicGuard(t *testing.T) {
	g, err := NewRouteGuard(RouteOptions{
		Mode:   ModeBasic,
		Policy: DefaultPolicy(),
		Basic:  BasicCredentials{Username: "admin", Password: "s3cret"},
	})
	require.NoError(t, err)
	h := g.Middleware(okHandler(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="PetGuard"`, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.SetBasicAuth("admin", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "page", rec.Body.String())
}

func TestNewRouteGuard_RejectsBadConfig(t *testing.T) {
	_, err := NewRouteGuard(RouteOptions{Mode: "both"})
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = NewRouteGuard(RouteOptions{Mode: ModeBasic})
	assert.Error(t, err)

	_, err = NewRouteGuard(RouteOptions{Mode: ModeSession})
	assert.Error(t, err)
}
