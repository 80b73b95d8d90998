// Package nominatim implementa geocoding.ReverseGeocoder contra la API /reverse
// de Nominatim (OpenStreetMap), con cache LRU por coordenada redondeada.
package nominatim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"petguard/internal/platform/httpclient"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "petguard/1.0"
	defaultCacheSize = 1024
	defaultCacheTTL  = 24 * time.Hour
)

var ErrNoResult = errors.New("nominatim: no result for coordinates")

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	CacheSize int
	CacheTTL  time.Duration
	Transport http.RoundTripper
}

type Client struct {
	http  *httpclient.Client
	cache *expirable.LRU[string, string]
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road          string `json:"road"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
	} `json:"address"`
}

func New(cfg Config) (*Client, error) {
	base := cfg.BaseURL
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if strings.TrimSpace(ua) == "" {
		ua = DefaultUserAgent
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   base,
		Timeout:   cfg.Timeout,
		Transport: cfg.Transport,
		// la política de uso de Nominatim exige un User-Agent identificable
		Headers: map[string]string{"User-Agent": ua},
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		http:  hc,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}, nil
}

// PlaceName devuelve un nombre corto del lugar ("Calle, Barrio, Ciudad").
func (c *Client) PlaceName(ctx context.Context, lat, lng float64) (string, error) {
	key := cacheKey(lat, lng)
	if name, ok := c.cache.Get(key); ok {
		return name, nil
	}

	var out reverseResponse
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/reverse",
		Query: url.Values{
			"format":          {"jsonv2"},
			"lat":             {strconv.FormatFloat(lat, 'f', 6, 64)},
			"lon":             {strconv.FormatFloat(lng, 'f', 6, 64)},
			"zoom":            {"17"},
			"accept-language": {"es"},
		},
		Out: &out,
	})
	if err != nil {
		return "", fmt.Errorf("nominatim reverse: %w", err)
	}
	if out.Error != "" {
		return "", ErrNoResult
	}

	name := shortName(out)
	if name == "" {
		return "", ErrNoResult
	}
	c.cache.Add(key, name)
	return name, nil
}

// cacheKey redondea a 4 decimales (~11 m).
func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lng)
}

func shortName(r reverseResponse) string {
	a := r.Address
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Road, firstNonEmpty(a.Neighbourhood, a.Suburb), firstNonEmpty(a.City, a.Town, a.Village, a.State)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return strings.TrimSpace(r.DisplayName)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
