package public

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/domain/pets"
	"petguard/internal/domain/profiles"
	"petguard/internal/domain/reports"
	"petguard/internal/platform/apperr"
)

type fakePets map[string]pets.Pet

func (f fakePets) GetActiveByShortID(_ context.Context, shortID string) (pets.Pet, error) {
	p, ok := f[shortID]
	if !ok || !p.IsActive {
		return pets.Pet{}, apperr.ErrNotFound
	}
	return p, nil
}

type fakeProfiles map[string]profiles.Profile

func (f fakeProfiles) Get(_ context.Context, userID string) (profiles.Profile, error) {
	p, ok := f[userID]
	if !ok {
		return profiles.Profile{}, apperr.ErrNotFound
	}
	return p, nil
}

type recordingReports struct {
	got []string
}

func (r *recordingReports) Submit(_ context.Context, petID string, in reports.SubmitInput) (reports.FoundReport, error) {
	if strings.TrimSpace(in.Location) == "" && in.Latitude == nil {
		return reports.FoundReport{}, apperr.Invalid("location", "required")
	}
	r.got = append(r.got, petID)
	return reports.FoundReport{ID: "r1", PetID: petID, Location: in.Location}, nil
}

func newFixture() (*Service, *recordingReports) {
	rec := &recordingReports{}
	svc := NewService(
		fakePets{
			"AB12CD": {ID: "p-inactive", ShortID: "AB12CD", OwnerUserID: "o1", Name: "Luna", IsActive: false},
			"QW34ER": {ID: "p-active", ShortID: "QW34ER", OwnerUserID: "o1", Name: "Toby", IsActive: true},
			"NOPROF": {ID: "p-orphan", ShortID: "NOPROF", OwnerUserID: "o2", Name: "Kira", IsActive: true},
		},
		fakeProfiles{"o1": {UserID: "o1", FullName: "Ana", Phone: "555", Email: "ana@x.y", MaxPets: 3}},
		rec,
		nil,
	)
	return svc, rec
}

func newTestServer(svc *Service, limiter *ClientLimiter) *httptest.Server {
	r := chi.NewRouter()
	RegisterRoutes(r, svc, limiter)
	return httptest.NewServer(r)
}

func TestLookup_FallbackOwnerName(t *testing.T) {
	svc, _ := newFixture()
	v, err := svc.Lookup(context.Background(), "NOPROF")
	require.NoError(t, err)
	assert.Equal(t, DefaultOwnerName, v.Owner.FullName)
}

func TestGetPublicPet_InactiveAndMissingAreIndistinguishable(t *testing.T) {
	svc, _ := newFixture()
	ts := newTestServer(svc, nil)
	defer ts.Close()

	get := func(id string) (*http.Response, string) {
		resp, err := http.Get(ts.URL + "/api/pet/" + id)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(b)
	}

	inactive, inactiveBody := get("AB12CD")
	missing, missingBody := get("ZZZZZZ")

	assert.Equal(t, http.StatusNotFound, inactive.StatusCode)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.JSONEq(t, `{"error":"not found"}`, inactiveBody)
	assert.Equal(t, missingBody, inactiveBody)
	assert.Equal(t, missing.Header.Get("Cache-Control"), inactive.Header.Get("Cache-Control"))
}

func TestGetPublicPet_ActiveHasRestrictedFieldsAndCacheHeader(t *testing.T) {
	svc, _ := newFixture()
	ts := newTestServer(svc, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/pet/QW34ER")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, CacheControl, resp.Header.Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Toby", body["name"])
	assert.NotContains(t, body, "max_pets")
	assert.NotContains(t, body, "owner_user_id")
	assert.NotContains(t, body, "short_id")
	owner, ok := body["owner"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ana", owner["full_name"])
	assert.NotContains(t, owner, "max_pets")
}

func TestSubmitReport_ActiveOnly(t *testing.T) {
	svc, rec := newFixture()
	ctx := context.Background()

	_, err := svc.SubmitReport(ctx, "AB12CD", reports.SubmitInput{Location: "Parque"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.SubmitReport(ctx, "QW34ER", reports.SubmitInput{Location: "Parque"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-active"}, rec.got)
}

func TestSubmitReportHandler_RateLimited(t *testing.T) {
	svc, _ := newFixture()
	ts := newTestServer(svc, NewClientLimiter(1, 2))
	defer ts.Close()

	post := func() int {
		resp, err := http.Post(ts.URL+"/api/pet/QW34ER/reports", "application/json",
			strings.NewReader(`{"finder_name":"Jane","location":"Main St Park"}`))
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusCreated, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}

func TestSubmitReportHandler_Validation(t *testing.T) {
	svc, _ := newFixture()
	ts := newTestServer(svc, nil)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/pet/QW34ER/reports", "application/json",
		strings.NewReader(`{"finder_email":"not-an-email","location":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/pet/QW34ER/reports", "application/json",
		strings.NewReader(`{"latitude":95,"longitude":0}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientLimiter_Disabled(t *testing.T) {
	l := NewClientLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("1.2.3.4"))
	}
	var nilLimiter *ClientLimiter
	assert.True(t, nilLimiter.Allow("x"))
}
