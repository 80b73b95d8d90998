package public

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	limiterEntries = 10_000
	limiterIdleTTL = 30 * time.Minute
)

// ClientLimiter limita escrituras anónimas por IP. Los limiters viven en una
// LRU con expiración para que la memoria quede acotada.
type ClientLimiter struct {
	perMinute int
	burst     int

	mu      sync.Mutex
	clients *expirable.LRU[string, *rate.Limiter]
}

// NewClientLimiter: perMinute <= 0 deshabilita el límite.
func NewClientLimiter(perMinute, burst int) *ClientLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &ClientLimiter{
		perMinute: perMinute,
		burst:     burst,
		clients:   expirable.NewLRU[string, *rate.Limiter](limiterEntries, nil, limiterIdleTTL),
	}
}

func (l *ClientLimiter) Allow(key string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.clients.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst)
		l.clients.Add(key, lim)
	}
	l.mu.Unlock()
	return lim.Allow()
}

// ClientKey usa RemoteAddr (chimw.RealIP ya lo reescribió si hay proxy).
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
