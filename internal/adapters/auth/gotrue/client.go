// Package gotrue habla con un servicio de auth hospedado compatible con GoTrue
// (/auth/v1/...). Las credenciales públicas van en el header apikey.
package gotrue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"petguard/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("gotrue client not configured")
	ErrUnauthorized  = errors.New("gotrue unauthorized")
	ErrUpstream      = errors.New("gotrue upstream error")
)

type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
	// Transport opcional (tests).
	Transport http.RoundTripper
}

type Client struct {
	http *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	key := strings.TrimSpace(cfg.AnonKey)
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base + "/auth/v1",
		Timeout:   timeout,
		Transport: cfg.Transport,
		Headers:   map[string]string{"apikey": key},
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

type user struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         user   `json:"user"`
}

func (c *Client) passwordGrant(ctx context.Context, email, password string) (tokenResponse, error) {
	var out tokenResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/token",
		Query:  url.Values{"grant_type": {"password"}},
		In:     map[string]string{"email": email, "password": password},
		Out:    &out,
	})
	return out, classify(err)
}

func (c *Client) refreshGrant(ctx context.Context, refreshToken string) (tokenResponse, error) {
	var out tokenResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/token",
		Query:  url.Values{"grant_type": {"refresh_token"}},
		In:     map[string]string{"refresh_token": refreshToken},
		Out:    &out,
	})
	return out, classify(err)
}

// signUp puede devolver sesión (auto-confirm) o solo el usuario (confirmación por email).
func (c *Client) signUp(ctx context.Context, email, password string, meta map[string]any) (tokenResponse, error) {
	var raw struct {
		tokenResponse
		// sin auto-confirm el servicio devuelve el usuario en la raíz
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/signup",
		In: map[string]any{
			"email":    email,
			"password": password,
			"data":     meta,
		},
		Out: &raw,
	})
	if err != nil {
		return tokenResponse{}, classify(err)
	}
	out := raw.tokenResponse
	if out.User.ID == "" {
		out.User = user{ID: raw.ID, Email: raw.Email}
	}
	return out, nil
}

func (c *Client) getUser(ctx context.Context, accessToken string) (user, error) {
	var out user
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method:  http.MethodGet,
		Path:    "/user",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
		Out:     &out,
	})
	return out, classify(err)
}

func (c *Client) logout(ctx context.Context, accessToken string) error {
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/logout",
		Headers: map[string]string{"Authorization": "Bearer " + accessToken},
	})
	return classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	switch httpclient.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	default:
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
}
