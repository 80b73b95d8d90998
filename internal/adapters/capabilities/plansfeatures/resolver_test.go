package plansfeatures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/ports/capabilities"
)

var profileQuota = capabilities.QuotaFunc(func(context.Context, string) (int, error) { return 3, nil })

func TestResolver_NotConfiguredUsesFallback(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Nil(t, c)

	n, err := NewResolver(c, profileQuota, nil).MaxPets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestResolver_RemoteLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "/v1/limits", r.URL.Path)
		assert.Equal(t, "u1", r.URL.Query().Get("user_id"))
		_, _ = w.Write([]byte(`{"plan":"pro","max_pets":10}`))
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "k"})
	require.NoError(t, err)

	n, err := NewResolver(c, profileQuota, nil).MaxPets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestResolver_UpstreamFailureFallsBack(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c, err := NewClient(Config{BaseURL: ts.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = c.GetLimits(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrPlansUpstream)

	n, err := NewResolver(c, profileQuota, nil).MaxPets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
