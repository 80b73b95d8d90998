package pets

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petguard/internal/platform/apperr"
	"petguard/internal/ports/capabilities"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu      sync.Mutex
	byID    map[string]Pet
	creates int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Pet{}}
}

func (r *testRepo) CreateWithinQuota(_ context.Context, p Pet, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++

	n := 0
	for _, x := range r.byID {
		if x.OwnerUserID == p.OwnerUserID {
			n++
		}
		if x.ShortID == p.ShortID {
			return ErrShortIDTaken
		}
	}
	if n >= max {
		return &apperr.QuotaError{Current: n, Max: max}
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) Update(_ context.Context, p Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID]; !ok {
		return apperr.ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(_ context.Context, id string) (Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return Pet{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) GetByShortID(_ context.Context, shortID string) (Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.ShortID == shortID {
			return p, nil
		}
	}
	return Pet{}, apperr.ErrNotFound
}

func (r *testRepo) ListByOwner(_ context.Context, owner string) ([]Pet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Pet, 0)
	for _, p := range r.byID {
		if p.OwnerUserID == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *testRepo) CountByOwner(ctx context.Context, owner string) (int, error) {
	items, _ := r.ListByOwner(ctx, owner)
	return len(items), nil
}

type memStore struct {
	objects map[string][]byte
	putErr  error
}

func (s *memStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	return io.NopCloser(bytes.NewReader(s.objects[key])), "", nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func fixedQuota(n int) capabilities.QuotaResolver {
	return capabilities.QuotaFunc(func(context.Context, string) (int, error) { return n, nil })
}

func newTestService(repo Repository, max int) *Service {
	return NewService(repo, Options{
		Quota:         fixedQuota(max),
		Photos:        &memStore{objects: map[string][]byte{}},
		PublicBaseURL: "https://petguard.test/",
	})
}

func TestCreate_AssignsShortIDAndActive(t *testing.T) {
	svc := newTestService(newTestRepo(), 3)

	p, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: "  Firulais ", Breed: "Mestizo"})
	require.NoError(t, err)
	assert.Equal(t, "Firulais", p.Name)
	assert.True(t, p.IsActive)
	assert.Equal(t, p.ShortID, NormalizeShortID(p.ShortID))
	assert.Equal(t, "https://petguard.test/pet/"+p.ShortID, svc.PublicURL(p))
}

func TestCreate_RequiresName(t *testing.T) {
	svc := newTestService(newTestRepo(), 3)
	_, err := svc.Create(context.Background(), "owner-1", CreateInput{Name: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreate_QuotaExceededLeavesCountUnchanged(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, 3)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, "owner-1", CreateInput{Name: name})
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, "owner-1", CreateInput{Name: "D"})
	require.ErrorIs(t, err, apperr.ErrQuotaExceeded)
	var qe *apperr.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 3, qe.Current)
	assert.Equal(t, 3, qe.Max)

	n, err := svc.CountByOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// otro dueño no se ve afectado
	_, err = svc.Create(ctx, "owner-2", CreateInput{Name: "E"})
	require.NoError(t, err)
}

func TestCreate_RetriesShortIDCollision(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, 10)
	ctx := context.Background()

	first, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	ids := []string{first.ShortID, first.ShortID, "ZZZZZ9"}
	svc.newShortID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
	repo.creates = 0

	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, "ZZZZZ9", p.ShortID)
	assert.Equal(t, 3, repo.creates)
}

func TestCreate_CollisionExhaustionIsTransient(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo, 10)
	ctx := context.Background()

	first, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)
	svc.newShortID = func() (string, error) { return first.ShortID, nil }

	_, err = svc.Create(ctx, "owner-1", CreateInput{Name: "B"})
	assert.ErrorIs(t, err, apperr.ErrTransientStore)
	assert.True(t, errors.Is(err, ErrShortIDTaken))
}

func TestUpdate_OwnerScopedAndShortIDImmutable(t *testing.T) {
	svc := newTestService(newTestRepo(), 3)
	ctx := context.Background()
	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	inactive := false
	name := "Rex"
	_, err = svc.Update(ctx, "intruder", p.ID, UpdateInput{IsActive: &inactive})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	u, err := svc.Update(ctx, "owner-1", p.ID, UpdateInput{Name: &name, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Rex", u.Name)
	assert.False(t, u.IsActive)
	assert.Equal(t, p.ShortID, u.ShortID)
}

func TestGetActiveByShortID_InactiveLooksMissing(t *testing.T) {
	svc := newTestService(newTestRepo(), 3)
	ctx := context.Background()
	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	got, err := svc.GetActiveByShortID(ctx, strings.ToLower(p.ShortID))
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	off := false
	_, err = svc.Update(ctx, "owner-1", p.ID, UpdateInput{IsActive: &off})
	require.NoError(t, err)

	_, errInactive := svc.GetActiveByShortID(ctx, p.ShortID)
	_, errMissing := svc.GetActiveByShortID(ctx, "ZZZZZZ")
	_, errMalformed := svc.GetActiveByShortID(ctx, "../etc")
	assert.ErrorIs(t, errInactive, apperr.ErrNotFound)
	assert.ErrorIs(t, errMissing, apperr.ErrNotFound)
	assert.ErrorIs(t, errMalformed, apperr.ErrNotFound)
	assert.Equal(t, errMissing.Error(), errInactive.Error())
}

func TestSetPhoto_ValidatesBeforeUpload(t *testing.T) {
	repo := newTestRepo()
	store := &memStore{objects: map[string][]byte{}}
	svc := NewService(repo, Options{Quota: fixedQuota(3), Photos: store, OptimizePhotos: true})
	ctx := context.Background()
	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	_, err = svc.SetPhoto(ctx, "owner-1", p.ID, []byte("not an image"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, store.objects)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300))))
	u, err := svc.SetPhoto(ctx, "owner-1", p.ID, buf.Bytes())
	require.NoError(t, err)
	require.Len(t, store.objects, 1)
	for key := range store.objects {
		assert.True(t, strings.HasPrefix(key, "owner-1/"+p.ID+"-"))
		assert.Equal(t, "https://cdn.test/"+key, u.PhotoURL)
	}
}

func TestTagQR(t *testing.T) {
	svc := newTestService(newTestRepo(), 3)
	ctx := context.Background()
	p, err := svc.Create(ctx, "owner-1", CreateInput{Name: "A"})
	require.NoError(t, err)

	data, _, err := svc.TagQR(ctx, "owner-1", p.ID)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	_, _, err = svc.TagQR(ctx, "someone-else", p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNewShortID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := NewShortID()
		require.NoError(t, err)
		require.Len(t, id, ShortIDLength)
		assert.Equal(t, id, NormalizeShortID(id))
		seen[id] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestPhotoKey(t *testing.T) {
	assert.Equal(t, "u1/p1-1700000000000.webp", PhotoKey("u1", "p1", 1700000000000, "webp"))
}
