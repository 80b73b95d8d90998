package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/ports/auth"
)

func TestCookieCodec_WriteMirrorsOnRequestAndResponse(t *testing.T) {
	codec := CookieCodec{Secure: true}
	r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "old"})
	r.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	w := httptest.NewRecorder()

	codec.WriteTokens(w, r, auth.Tokens{Access: "new-a", Refresh: "new-r", ExpiresAt: time.Now().Add(time.Hour)})

	got := codec.ReadTokens(r)
	assert.Equal(t, "new-a", got.Access)
	assert.Equal(t, "new-r", got.Refresh)
	ck, err := r.Cookie("theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", ck.Value)

	resp := w.Result()
	defer resp.Body.Close()
	byName := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		byName[c.Name] = c
	}
	require.Contains(t, byName, AccessCookie)
	require.Contains(t, byName, RefreshCookie)
	assert.Equal(t, "new-a", byName[AccessCookie].Value)
	assert.True(t, byName[AccessCookie].HttpOnly)
	assert.True(t, byName[AccessCookie].Secure)
}

func TestCookieCodec_Clear(t *testing.T) {
	codec := CookieCodec{}
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "a"})
	r.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "r"})
	w := httptest.NewRecorder()

	codec.ClearTokens(w, r)

	assert.True(t, codec.ReadTokens(r).Empty())
	for _, c := range w.Result().Cookies() {
		assert.Equal(t, "", c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}
