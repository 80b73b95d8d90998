package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/platform/apperr"
	"petguard/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byUser map[string]Profile
}

func newTestRepo() *testRepo {
	return &testRepo{byUser: map[string]Profile{}}
}

func (r *testRepo) Create(_ context.Context, p Profile) error {
	if _, ok := r.byUser[p.UserID]; ok {
		return ErrAlreadyExists
	}
	r.byUser[p.UserID] = p
	return nil
}

func (r *testRepo) GetByUserID(_ context.Context, userID string) (Profile, error) {
	p, ok := r.byUser[userID]
	if !ok {
		return Profile{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) Update(_ context.Context, p Profile) error {
	if _, ok := r.byUser[p.UserID]; !ok {
		return apperr.ErrNotFound
	}
	r.byUser[p.UserID] = p
	return nil
}

func TestProvision_CreatesDefaultQuota(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, Options{})

	err := svc.Provision(context.Background(), "u1", "Ana@Mail.com", auth.SignUpInput{FullName: " Ana ", Phone: "555"})
	require.NoError(t, err)

	p, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FullName)
	assert.Equal(t, "ana@mail.com", p.Email)
	assert.Equal(t, DefaultMaxPets, p.MaxPets)

	// segunda vez no falla ni pisa
	require.NoError(t, svc.Provision(context.Background(), "u1", "otro@mail.com", auth.SignUpInput{}))
	p2, _ := svc.Get(context.Background(), "u1")
	assert.Equal(t, p.ID, p2.ID)
}

func TestGet_MissingWithoutEnsureIsNotFound(t *testing.T) {
	svc := NewService(newTestRepo(), Options{})
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetOrCreate_EnsureOnRead(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, Options{EnsureOnRead: true, DefaultMaxPets: 5})

	p, err := svc.GetOrCreate(context.Background(), "u9", "x@y.z")
	require.NoError(t, err)
	assert.Equal(t, 5, p.MaxPets)
	assert.Len(t, repo.byUser, 1)

	max, err := svc.MaxPets(context.Background(), "u9")
	require.NoError(t, err)
	assert.Equal(t, 5, max)
}

func TestUpdate_PatchSemantics(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, Options{})
	require.NoError(t, svc.Provision(context.Background(), "u1", "a@b.c", auth.SignUpInput{FullName: "Ana", Phone: "1"}))

	phone := " 555-0100 "
	p, err := svc.Update(context.Background(), "u1", UpdateInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FullName)
	assert.Equal(t, "555-0100", p.Phone)

	long := string(make([]rune, 200))
	_, err = svc.Update(context.Background(), "u1", UpdateInput{FullName: &long})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
