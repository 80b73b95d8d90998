package plansfeatures

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
	ErrPlansNotConfigured = errors.New("plans-features client not configured")
	ErrPlansUnauthorized  = errors.New("plans-features unauthorized")
	ErrPlansUpstream      = errors.New("plans-features upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	// Opcional: header de la API key. Vacío => "X-Api-Key".
	APIKeyHeader string
	Timeout      time.Duration
	Transport    http.RoundTripper
}

type Client struct {
	http *httpclient.Client
}

// NewClient devuelve nil si falta BaseURL o APIKey (servicio de planes opcional).
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	key := strings.TrimSpace(cfg.APIKey)
	if base == "" || key == "" {
		return nil, nil
	}
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Timeout:   timeout,
		Transport: cfg.Transport,
		Headers:   map[string]string{h: key},
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil
}

// LimitsResponse es el contrato del servicio de planes.
type LimitsResponse struct {
	Plan    string `json:"plan"`
	MaxPets int    `json:"max_pets"`
}

// GetLimits trae los límites del plan de un usuario: GET /v1/limits?user_id=...
func (c *Client) GetLimits(ctx context.Context, userID string) (LimitsResponse, error) {
	if !c.IsConfigured() {
		return LimitsResponse{}, ErrPlansNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return LimitsResponse{}, errors.New("userID required")
	}

	var out LimitsResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/v1/limits",
		Query:  url.Values{"user_id": {userID}},
		Out:    &out,
	})
	if err != nil {
		switch httpclient.StatusOf(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			return LimitsResponse{}, ErrPlansUnauthorized
		default:
			return LimitsResponse{}, fmt.Errorf("%w: %v", ErrPlansUpstream, err)
		}
	}
	return out, nil
}
