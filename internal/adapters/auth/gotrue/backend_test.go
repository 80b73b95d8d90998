package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/ports/auth"
)

func accessToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-side-secret"))
	require.NoError(t, err)
	return tok
}

type fakeGoTrue struct {
	validAccess  string
	freshAccess  string
	userCalls    atomic.Int32
	refreshCalls atomic.Int32
}

func (f *fakeGoTrue) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		f.userCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer "+f.validAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "user-1", "email": "a@b.c"})
	})
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["password"] != "secret1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		case "refresh_token":
			f.refreshCalls.Add(1)
			if body["refresh_token"] != "good-refresh" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  f.freshAccess,
			"refresh_token": "rotated-refresh",
			"expires_in":    3600,
			"user":          map[string]any{"id": "user-1", "email": "a@b.c"},
		})
	})
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestBackend(t *testing.T, f *fakeGoTrue) *Backend {
	t.Helper()
	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)
	c, err := NewClient(Config{URL: ts.URL, AnonKey: "anon"})
	require.NoError(t, err)
	return NewBackend(c)
}

func TestNewClient_RequiresConfig(t *testing.T) {
	_, err := NewClient(Config{URL: "http://x"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResolve_ValidAccess(t *testing.T) {
	f := &fakeGoTrue{validAccess: accessToken(t, time.Now().Add(time.Hour))}
	b := newTestBackend(t, f)

	s, refreshed, err := b.Resolve(context.Background(), auth.Tokens{Access: f.validAccess, Refresh: "good-refresh"})
	require.NoError(t, err)
	assert.Nil(t, refreshed)
	assert.Equal(t, "user-1", s.UserID)
	assert.Zero(t, f.refreshCalls.Load())
}

func TestResolve_AboutToExpireRefreshesWithoutUserCall(t *testing.T) {
	f := &fakeGoTrue{freshAccess: accessToken(t, time.Now().Add(time.Hour))}
	b := newTestBackend(t, f)

	old := accessToken(t, time.Now().Add(10*time.Second))
	s, refreshed, err := b.Resolve(context.Background(), auth.Tokens{Access: old, Refresh: "good-refresh"})
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, "rotated-refresh", refreshed.Refresh)
	assert.Equal(t, "user-1", s.UserID)
	assert.Zero(t, f.userCalls.Load())
}

func TestResolve_RejectedAccessFallsBackToRefresh(t *testing.T) {
	f := &fakeGoTrue{validAccess: "other", freshAccess: "fresh"}
	b := newTestBackend(t, f)

	_, refreshed, err := b.Resolve(context.Background(), auth.Tokens{
		Access:  accessToken(t, time.Now().Add(time.Hour)),
		Refresh: "good-refresh",
	})
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, int32(1), f.refreshCalls.Load())
}

func TestResolve_BadRefreshIsExpired(t *testing.T) {
	b := newTestBackend(t, &fakeGoTrue{})
	_, _, err := b.Resolve(context.Background(), auth.Tokens{Refresh: "stale"})
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestSignIn(t *testing.T) {
	f := &fakeGoTrue{freshAccess: "fresh"}
	b := newTestBackend(t, f)

	_, _, err := b.SignIn(context.Background(), auth.Credentials{Email: "a@b.c", Password: "nope"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	s, tok, err := b.SignIn(context.Background(), auth.Credentials{Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "fresh", tok.Access)
	assert.False(t, tok.ExpiresAt.IsZero())

	_, err = b.SignOut(context.Background(), tok)
	require.NoError(t, err)
}

func TestResolve_UpstreamDownIsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()
	c, err := NewClient(Config{URL: ts.URL, AnonKey: "anon"})
	require.NoError(t, err)

	_, _, err = NewBackend(c).Resolve(context.Background(), auth.Tokens{Access: accessToken(t, time.Now().Add(time.Hour))})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestSignOut_ReportsUserWithoutRefreshing(t *testing.T) {
	f := &fakeGoTrue{}
	b := newTestBackend(t, f)

	userID, err := b.SignOut(context.Background(), auth.Tokens{
		Access:  accessToken(t, time.Now().Add(-time.Minute)),
		Refresh: "good-refresh",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Zero(t, f.userCalls.Load())
	assert.Zero(t, f.refreshCalls.Load())

	userID, err = b.SignOut(context.Background(), auth.Tokens{Refresh: "good-refresh"})
	require.NoError(t, err)
	assert.Empty(t, userID)
}
