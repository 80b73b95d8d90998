package reports

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/domain/pets"
	"petguard/internal/platform/apperr"
)

type testRepo struct {
	items []FoundReport
}

func (r *testRepo) Create(_ context.Context, rep FoundReport) error {
	r.items = append(r.items, rep)
	return nil
}

func (r *testRepo) ListByPets(_ context.Context, petIDs []string) ([]FoundReport, error) {
	want := map[string]bool{}
	for _, id := range petIDs {
		want[id] = true
	}
	out := make([]FoundReport, 0)
	for _, it := range r.items {
		if want[it.PetID] {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) CountByPets(ctx context.Context, petIDs []string) (int, error) {
	items, _ := r.ListByPets(ctx, petIDs)
	return len(items), nil
}

type testPets map[string]pets.Pet

func (d testPets) OwnerOf(_ context.Context, petID string) (string, error) {
	p, ok := d[petID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return p.OwnerUserID, nil
}

func (d testPets) ListByOwner(_ context.Context, owner string) ([]pets.Pet, error) {
	out := make([]pets.Pet, 0)
	for _, p := range d {
		if p.OwnerUserID == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

type stubGeocoder struct {
	place string
	err   error
}

func (g stubGeocoder) PlaceName(context.Context, float64, float64) (string, error) {
	return g.place, g.err
}

func fixture() (*testRepo, testPets) {
	return &testRepo{}, testPets{
		"P1": {ID: "P1", ShortID: "AB12CD", OwnerUserID: "owner-1", Name: "Luna"},
		"P2": {ID: "P2", ShortID: "QW34ER", OwnerUserID: "owner-2", Name: "Toby"},
	}
}

func ptr(f float64) *float64 { return &f }

func TestSubmit_WithoutCoordinatesVisibleOnlyToOwner(t *testing.T) {
	repo, dir := fixture()
	svc := NewService(repo, dir, Options{})
	ctx := context.Background()

	rep, err := svc.Submit(ctx, "P1", SubmitInput{FinderName: "Jane", FinderPhone: "555-0100", Location: "Main St Park"})
	require.NoError(t, err)
	assert.Nil(t, rep.Latitude)
	assert.Nil(t, rep.Longitude)
	assert.Equal(t, "Main St Park", rep.Location)

	mine, err := svc.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Luna", mine[0].PetName)

	others, err := svc.ListByOwner(ctx, "owner-2")
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = svc.ListByPet(ctx, "owner-2", "P1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSubmit_DefaultsAndValidation(t *testing.T) {
	repo, dir := fixture()
	svc := NewService(repo, dir, Options{})
	ctx := context.Background()

	rep, err := svc.Submit(ctx, "P1", SubmitInput{Location: "Plaza"})
	require.NoError(t, err)
	assert.Equal(t, DefaultFinderName, rep.FinderName)

	_, err = svc.Submit(ctx, "P1", SubmitInput{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Submit(ctx, "P1", SubmitInput{Location: "x", Latitude: ptr(10)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Submit(ctx, "P1", SubmitInput{Location: "x", Latitude: ptr(91), Longitude: ptr(0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	assert.Len(t, repo.items, 1)
}

func TestSubmit_LocationResolution(t *testing.T) {
	ctx := context.Background()
	lat, lng := -34.603722, -58.381592

	t.Run("coords only without geocoder", func(t *testing.T) {
		repo, dir := fixture()
		rep, err := NewService(repo, dir, Options{}).Submit(ctx, "P1", SubmitInput{Latitude: ptr(lat), Longitude: ptr(lng)})
		require.NoError(t, err)
		assert.Equal(t, "Lat: -34.603722, Lng: -58.381592", rep.Location)
		require.NotNil(t, rep.Latitude)
		assert.InDelta(t, lat, *rep.Latitude, 1e-9)
	})

	t.Run("text and coords", func(t *testing.T) {
		repo, dir := fixture()
		rep, err := NewService(repo, dir, Options{}).Submit(ctx, "P1", SubmitInput{Location: "Obelisco", Latitude: ptr(lat), Longitude: ptr(lng)})
		require.NoError(t, err)
		assert.Equal(t, "Obelisco (Lat: -34.603722, Lng: -58.381592)", rep.Location)
	})

	t.Run("geocoder success", func(t *testing.T) {
		repo, dir := fixture()
		svc := NewService(repo, dir, Options{Geocoder: stubGeocoder{place: "Av. 9 de Julio"}})
		rep, err := svc.Submit(ctx, "P1", SubmitInput{Latitude: ptr(lat), Longitude: ptr(lng)})
		require.NoError(t, err)
		assert.Equal(t, "Av. 9 de Julio (Lat: -34.603722, Lng: -58.381592)", rep.Location)
	})

	t.Run("geocoder failure falls back", func(t *testing.T) {
		repo, dir := fixture()
		svc := NewService(repo, dir, Options{Geocoder: stubGeocoder{err: errors.New("timeout")}})
		rep, err := svc.Submit(ctx, "P1", SubmitInput{Latitude: ptr(lat), Longitude: ptr(lng)})
		require.NoError(t, err)
		assert.Equal(t, CoordinatesText(lat, lng), rep.Location)
	})
}

func TestGeoJSON_OnlyReportsWithCoordinates(t *testing.T) {
	repo, dir := fixture()
	svc := NewService(repo, dir, Options{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, "P1", SubmitInput{Location: "sin coords"})
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	_, err = svc.Submit(ctx, "P1", SubmitInput{Latitude: ptr(1.5), Longitude: ptr(2.5)})
	require.NoError(t, err)

	fc, err := svc.GeoJSON(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	b, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"coordinates":[2.5,1.5]`)
	assert.Contains(t, string(b), `"short_id":"AB12CD"`)

	n, err := svc.CountByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
