package session

import (
	"net/http"
	"strings"
	"time"

	"petguard/internal/ports/auth"
)

const (
	AccessCookie  = "pg-access-token"
	RefreshCookie = "pg-refresh-token"

	refreshCookieMaxAge = 30 * 24 * time.Hour
)

// CookieCodec lee y escribe los tokens de sesión en cookies.
type CookieCodec struct {
	Secure bool
}

// ReadTokens usa solo el cookie jar del request (sin estado compartido).
func (c CookieCodec) ReadTokens(r *http.Request) auth.Tokens {
	var t auth.Tokens
	if ck, err := r.Cookie(AccessCookie); err == nil {
		t.Access = ck.Value
	}
	if ck, err := r.Cookie(RefreshCookie); err == nil {
		t.Refresh = ck.Value
	}
	return t
}

// WriteTokens escribe las cookies en la respuesta y las reemplaza en el request
// entrante, así el resto de la cadena ve la misma sesión refrescada.
func (c CookieCodec) WriteTokens(w http.ResponseWriter, r *http.Request, t auth.Tokens) {
	access := c.cookie(AccessCookie, t.Access)
	if !t.ExpiresAt.IsZero() {
		access.Expires = t.ExpiresAt
	}
	refresh := c.cookie(RefreshCookie, t.Refresh)
	refresh.MaxAge = int(refreshCookieMaxAge.Seconds())

	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
	if r != nil {
		replaceRequestCookies(r, map[string]string{AccessCookie: t.Access, RefreshCookie: t.Refresh})
	}
}

// ClearTokens borra las cookies en respuesta y request.
func (c CookieCodec) ClearTokens(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		ck := c.cookie(name, "")
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
	if r != nil {
		replaceRequestCookies(r, map[string]string{AccessCookie: "", RefreshCookie: ""})
	}
}

func (c CookieCodec) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// replaceRequestCookies reescribe el header Cookie; valor vacío => se quita la cookie.
func replaceRequestCookies(r *http.Request, values map[string]string) {
	kept := make([]string, 0)
	for _, ck := range r.Cookies() {
		if _, replaced := values[ck.Name]; replaced {
			continue
		}
		kept = append(kept, (&http.Cookie{Name: ck.Name, Value: ck.Value}).String())
	}
	for name, v := range values {
		if v == "" {
			continue
		}
		kept = append(kept, (&http.Cookie{Name: name, Value: v}).String())
	}

	r.Header.Del("Cookie")
	if len(kept) > 0 {
		r.Header.Set("Cookie", strings.Join(kept, "; "))
	}
}
