package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/repo"
	"github.com/pkordes/footsteps/internal/service"
	"github.com/pkordes/footsteps/internal/storage"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create              func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	getByID             func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	listByOwner         func(ctx context.Context, userID string, p domain.PaginationParams) ([]domain.Trip, int64, error)
	update              func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	delete              func(ctx context.Context, id uuid.UUID) error
	countByOwner        func(ctx context.Context, userID string) (int64, error)
	countLocations      func(ctx context.Context, userID string) (int64, error)
	listUpcoming        func(ctx context.Context, userID string, after time.Time, limit int) ([]domain.Trip, error)
	listRecentlyCreated func(ctx context.Context, userID string, limit int) ([]domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) ListByOwner(ctx context.Context, userID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.listByOwner(ctx, userID, p)
}
func (m *mockTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.update(ctx, trip)
}
func (m *mockTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTripRepo) CountByOwner(ctx context.Context, userID string) (int64, error) {
	return m.countByOwner(ctx, userID)
}
func (m *mockTripRepo) CountLocations(ctx context.Context, userID string) (int64, error) {
	return m.countLocations(ctx, userID)
}
func (m *mockTripRepo) ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]domain.Trip, error) {
	return m.listUpcoming(ctx, userID, after, limit)
}
func (m *mockTripRepo) ListRecentlyCreated(ctx context.Context, userID string, limit int) ([]domain.Trip, error) {
	return m.listRecentlyCreated(ctx, userID, limit)
}

// compile-time check: mockTripRepo must satisfy repo.TripRepo.
var _ repo.TripRepo = (*mockTripRepo)(nil)

type mockPhotoRepo struct {
	create        func(ctx context.Context, p domain.Photo) (domain.Photo, error)
	getWithOwner  func(ctx context.Context, id uuid.UUID) (domain.Photo, string, error)
	listByOwner   func(ctx context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error)
	updateCaption func(ctx context.Context, id uuid.UUID, caption *string) (domain.Photo, error)
	countByOwner  func(ctx context.Context, userID string) (int64, error)
}

func (m *mockPhotoRepo) Create(ctx context.Context, p domain.Photo) (domain.Photo, error) {
	return m.create(ctx, p)
}
func (m *mockPhotoRepo) GetWithOwner(ctx context.Context, id uuid.UUID) (domain.Photo, string, error) {
	return m.getWithOwner(ctx, id)
}
func (m *mockPhotoRepo) ListByOwner(ctx context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error) {
	return m.listByOwner(ctx, userID, f)
}
func (m *mockPhotoRepo) UpdateCaption(ctx context.Context, id uuid.UUID, caption *string) (domain.Photo, error) {
	return m.updateCaption(ctx, id, caption)
}
func (m *mockPhotoRepo) CountByOwner(ctx context.Context, userID string) (int64, error) {
	return m.countByOwner(ctx, userID)
}

var _ repo.PhotoRepo = (*mockPhotoRepo)(nil)

// fakeURLs "signs" object keys by prefixing them, and passes absolute URLs
// through like the real resolver.
type fakeURLs struct {
	err   error
	calls int
}

func (f *fakeURLs) Resolve(_ context.Context, ref string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if ref == "" || storage.IsAbsoluteURL(ref) {
		return ref, nil
	}
	return "https://signed.test/" + ref, nil
}

func (f *fakeURLs) ResolveAll(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	for i, r := range refs {
		u, err := f.Resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

var _ service.URLResolver = (*fakeURLs)(nil)

type fakeBlobStore struct {
	err         error
	deleteErr   error
	gotKey      storage.ObjectKey
	gotType     string
	gotBodySize int
	deleted     []string
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func (f *fakeBlobStore) Put(_ context.Context, body []byte, contentType string, key storage.ObjectKey) (string, error) {
	f.gotKey, f.gotType, f.gotBodySize = key, contentType, len(body)
	if f.err != nil {
		return "", f.err
	}
	return key.String(), nil
}

var _ service.BlobStore = (*fakeBlobStore)(nil)

type recordingObserver struct {
	uploads  []string
	failures int
	metadata int
}

func (r *recordingObserver) ObserveUpload(kind string, err error) {
	r.uploads = append(r.uploads, kind)
	if err != nil {
		r.failures++
	}
}

func (r *recordingObserver) ObserveMetadata(bool, bool) { r.metadata++ }

var _ service.IngestObserver = (*recordingObserver)(nil)

// ---- shared helpers ---------------------------------------------------------

const (
	owner    = "user-owner"
	stranger = "user-stranger"
)

var errDB = errors.New("db exploded")

func ptr[T any](v T) *T { return &v }

func ownedTripFixture() domain.Trip {
	return domain.Trip{
		ID:          uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		UserID:      owner,
		Name:        "Summer Tour",
		Description: ptr("Lisbon"),
		StartDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tripRepoWith returns a repo whose GetByID knows exactly the given trips.
func tripRepoWith(trips ...domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			for _, t := range trips {
				if t.ID == id {
					return t, nil
				}
			}
			return domain.Trip{}, domain.ErrNotFound
		},
		create: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		update: func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil },
		delete: func(context.Context, uuid.UUID) error { return nil },
	}
}
