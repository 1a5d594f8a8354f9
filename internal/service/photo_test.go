package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/service"
)

func storedPhoto(tripID uuid.UUID) domain.Photo {
	return domain.Photo{
		ID:         uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		TripID:     tripID,
		StorageKey: "users/user-owner/trips/t/photos/p-img.jpg",
		Tags:       []string{},
	}
}

// photoRepoOwnedBy serves a single photo whose parent trip belongs to photoOwner.
func photoRepoOwnedBy(p domain.Photo, photoOwner string) *mockPhotoRepo {
	return &mockPhotoRepo{
		getWithOwner: func(_ context.Context, id uuid.UUID) (domain.Photo, string, error) {
			if id != p.ID {
				return domain.Photo{}, "", domain.ErrNotFound
			}
			return p, photoOwner, nil
		},
		create: func(_ context.Context, in domain.Photo) (domain.Photo, error) {
			in.CreatedAt = time.Now()
			return in, nil
		},
		updateCaption: func(_ context.Context, _ uuid.UUID, caption *string) (domain.Photo, error) {
			out := p
			out.Caption = caption
			return out, nil
		},
	}
}

// ---- Upload -----------------------------------------------------------------

func TestPhotoService_Upload(t *testing.T) {
	trip := ownedTripFixture()
	blobs := &fakeBlobStore{}
	obs := &recordingObserver{}
	svc := service.NewPhotoService(tripRepoWith(trip), photoRepoOwnedBy(domain.Photo{}, owner), blobs, &fakeURLs{}, obs)

	got, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{
		Filename:    "../../etc/beach day.JPG",
		ContentType: "image/jpeg; charset=binary",
		Data:        []byte("not really a jpeg"),
	})

	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, got.ID, blobs.gotKey.PhotoID, "the key embeds the photo id")
	assert.Equal(t, owner, blobs.gotKey.UserID)
	assert.Equal(t, "image/jpeg", blobs.gotType)
	assert.Equal(t, "users/user-owner/trips/"+trip.ID.String()+"/photos/"+got.ID.String()+"-beach-day.JPG", got.StorageKey)
	assert.Equal(t, "https://signed.test/"+got.StorageKey, got.ViewURL)
	assert.Nil(t, got.CapturedAt, "unreadable metadata never blocks ingestion")
	assert.Nil(t, got.Latitude)
	assert.Equal(t, []string{"image"}, obs.uploads)
	assert.Equal(t, 1, obs.metadata)
}

func TestPhotoService_Upload_RowFailureDiscardsObject(t *testing.T) {
	trip := ownedTripFixture()
	photos := photoRepoOwnedBy(domain.Photo{}, owner)
	photos.create = func(context.Context, domain.Photo) (domain.Photo, error) { return domain.Photo{}, errDB }

	for name, deleteErr := range map[string]error{
		"object removed":        nil,
		"removal fails as well": errors.New("s3 unavailable"),
	} {
		t.Run(name, func(t *testing.T) {
			blobs := &fakeBlobStore{deleteErr: deleteErr}
			svc := service.NewPhotoService(tripRepoWith(trip), photos, blobs, &fakeURLs{}, nil)

			_, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{
				Filename:    "a.png",
				ContentType: "image/png",
				Data:        []byte("png"),
			})

			assert.ErrorIs(t, err, errDB, "the insert failure is what the caller sees")
			assert.Equal(t, []string{blobs.gotKey.String()}, blobs.deleted)
		})
	}
}

func TestPhotoService_Upload_RejectsUnsupportedType(t *testing.T) {
	trip := ownedTripFixture()
	blobs := &fakeBlobStore{}
	svc := service.NewPhotoService(tripRepoWith(trip), &mockPhotoRepo{}, blobs, &fakeURLs{}, nil)

	for _, ct := range []string{"application/pdf", "text/html", "", "image/svg+xml"} {
		_, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{
			Filename: "x", ContentType: ct, Data: []byte("x"),
		})
		assert.ErrorIs(t, err, domain.ErrValidation, ct)
	}
	assert.Zero(t, blobs.gotBodySize, "nothing reaches storage")
}

func TestPhotoService_Upload_RejectsEmptyFile(t *testing.T) {
	trip := ownedTripFixture()
	svc := service.NewPhotoService(tripRepoWith(trip), &mockPhotoRepo{}, &fakeBlobStore{}, &fakeURLs{}, nil)

	_, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{Filename: "a.png", ContentType: "image/png"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPhotoService_Upload_VideoKind(t *testing.T) {
	trip := ownedTripFixture()
	obs := &recordingObserver{}
	svc := service.NewPhotoService(tripRepoWith(trip), photoRepoOwnedBy(domain.Photo{}, owner), &fakeBlobStore{}, &fakeURLs{}, obs)

	_, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{
		Filename: "clip.mov", ContentType: "video/quicktime", Data: []byte{0, 0, 0, 8, 'f', 't'},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"video"}, obs.uploads)
}

func TestPhotoService_Upload_GuardBeforeStorage(t *testing.T) {
	trip := ownedTripFixture()
	blobs := &fakeBlobStore{}
	svc := service.NewPhotoService(tripRepoWith(trip), &mockPhotoRepo{}, blobs, &fakeURLs{}, nil)
	up := domain.Upload{Filename: "a.png", ContentType: "image/png", Data: []byte("x")}

	_, err := svc.Upload(context.Background(), "", trip.ID, up)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Upload(context.Background(), owner, uuid.New(), up)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Upload(context.Background(), stranger, trip.ID, up)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Zero(t, blobs.gotBodySize)
}

func TestPhotoService_Upload_StorageFailure(t *testing.T) {
	trip := ownedTripFixture()
	obs := &recordingObserver{}
	photos := &mockPhotoRepo{} // Create must not be reached
	blobs := &fakeBlobStore{err: errDB}
	svc := service.NewPhotoService(tripRepoWith(trip), photos, blobs, &fakeURLs{}, obs)

	_, err := svc.Upload(context.Background(), owner, trip.ID, domain.Upload{
		Filename: "a.png", ContentType: "image/png", Data: []byte("x"),
	})

	assert.ErrorIs(t, err, errDB)
	assert.Equal(t, 1, obs.failures)
	assert.Empty(t, blobs.deleted, "nothing was stored, so nothing is discarded")
}

// ---- Get / UpdateCaption ------------------------------------------------------

func TestPhotoService_Get_OwnershipThroughTrip(t *testing.T) {
	p := storedPhoto(ownedTripFixture().ID)
	svc := service.NewPhotoService(&mockTripRepo{}, photoRepoOwnedBy(p, owner), &fakeBlobStore{}, &fakeURLs{}, nil)
	ctx := context.Background()

	got, err := svc.Get(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/"+p.StorageKey, got.ViewURL)

	_, err = svc.Get(ctx, stranger, p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Get(ctx, stranger, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "", p.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestPhotoService_UpdateCaption(t *testing.T) {
	p := storedPhoto(ownedTripFixture().ID)

	tests := []struct {
		name string
		in   string
		want *string
	}{
		{"plain", "Sunset over the Tagus", ptr("Sunset over the Tagus")},
		{"markup stripped", "<b>Fish</b> & chips<script>alert(1)</script>", ptr("Fish & chips")},
		{"trimmed", "  hello  ", ptr("hello")},
		{"empty clears", "", nil},
		{"markup only clears", "<img src=x onerror=alert(1)>", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewPhotoService(&mockTripRepo{}, photoRepoOwnedBy(p, owner), &fakeBlobStore{}, &fakeURLs{}, nil)

			got, err := svc.UpdateCaption(context.Background(), owner, p.ID, tt.in)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Caption)
		})
	}
}

func TestPhotoService_UpdateCaption_TooLong(t *testing.T) {
	p := storedPhoto(ownedTripFixture().ID)
	svc := service.NewPhotoService(&mockTripRepo{}, photoRepoOwnedBy(p, owner), &fakeBlobStore{}, &fakeURLs{}, nil)

	_, err := svc.UpdateCaption(context.Background(), owner, p.ID, strings.Repeat("é", service.MaxCaptionRunes+1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateCaption(context.Background(), owner, p.ID, strings.Repeat("é", service.MaxCaptionRunes))
	assert.NoError(t, err, "the limit counts characters, not bytes")
}

func TestPhotoService_UpdateCaption_Forbidden(t *testing.T) {
	p := storedPhoto(ownedTripFixture().ID)
	photos := photoRepoOwnedBy(p, owner)
	photos.updateCaption = nil
	svc := service.NewPhotoService(&mockTripRepo{}, photos, &fakeBlobStore{}, &fakeURLs{}, nil)

	_, err := svc.UpdateCaption(context.Background(), stranger, p.ID, "mine")

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ---- Listings -----------------------------------------------------------------

func TestPhotoService_ListByTripGrouped(t *testing.T) {
	trip := ownedTripFixture()
	day1 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	var gotFilter domain.PhotoFilter
	photos := &mockPhotoRepo{
		listByOwner: func(_ context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error) {
			gotFilter = f
			return []domain.Photo{
				{ID: uuid.New(), TripID: trip.ID, StorageKey: "b", CapturedAt: &day2},
				{ID: uuid.New(), TripID: trip.ID, StorageKey: "u"},
				{ID: uuid.New(), TripID: trip.ID, StorageKey: "a", CapturedAt: &day1},
			}, nil
		},
	}
	svc := service.NewPhotoService(tripRepoWith(trip), photos, &fakeBlobStore{}, &fakeURLs{}, nil)

	groups, err := svc.ListByTripGrouped(context.Background(), owner, trip.ID)

	require.NoError(t, err)
	require.NotNil(t, gotFilter.TripID)
	assert.Equal(t, trip.ID, *gotFilter.TripID)
	require.Len(t, groups, 3)
	assert.Equal(t, "2025-06-02", groups[0].Label)
	assert.Equal(t, "2025-06-03", groups[1].Label)
	assert.Equal(t, domain.UnknownDateLabel, groups[2].Label)
	assert.Equal(t, "https://signed.test/a", groups[0].Photos[0].ViewURL)
	assert.Equal(t, "https://signed.test/u", groups[2].Photos[0].ViewURL)
}

func TestPhotoService_ListByTripGrouped_Forbidden(t *testing.T) {
	trip := ownedTripFixture()
	svc := service.NewPhotoService(tripRepoWith(trip), &mockPhotoRepo{}, &fakeBlobStore{}, &fakeURLs{}, nil)

	_, err := svc.ListByTripGrouped(context.Background(), stranger, trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPhotoService_ListByTripGrouped_Empty(t *testing.T) {
	trip := ownedTripFixture()
	photos := &mockPhotoRepo{
		listByOwner: func(context.Context, string, domain.PhotoFilter) ([]domain.Photo, error) {
			return []domain.Photo{}, nil
		},
	}
	urls := &fakeURLs{}
	svc := service.NewPhotoService(tripRepoWith(trip), photos, &fakeBlobStore{}, urls, nil)

	groups, err := svc.ListByTripGrouped(context.Background(), owner, trip.ID)

	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Zero(t, urls.calls, "nothing to sign")
}

func TestPhotoService_ListMapped(t *testing.T) {
	var gotOwner string
	var gotFilter domain.PhotoFilter
	photos := &mockPhotoRepo{
		listByOwner: func(_ context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error) {
			gotOwner, gotFilter = userID, f
			return []domain.Photo{{ID: uuid.New(), StorageKey: "k", Latitude: ptr(1.0), Longitude: ptr(2.0)}}, nil
		},
	}
	svc := service.NewPhotoService(&mockTripRepo{}, photos, &fakeBlobStore{}, &fakeURLs{}, nil)

	got, err := svc.ListMapped(context.Background(), owner)

	require.NoError(t, err)
	assert.Equal(t, owner, gotOwner)
	assert.True(t, gotFilter.HasCoordinates)
	require.Len(t, got, 1)
	assert.Equal(t, "https://signed.test/k", got[0].ViewURL)
}

func TestPhotoService_ListMapped_SigningFailure(t *testing.T) {
	photos := &mockPhotoRepo{
		listByOwner: func(context.Context, string, domain.PhotoFilter) ([]domain.Photo, error) {
			return []domain.Photo{{StorageKey: "k"}}, nil
		},
	}
	svc := service.NewPhotoService(&mockTripRepo{}, photos, &fakeBlobStore{}, &fakeURLs{err: errDB}, nil)

	got, err := svc.ListMapped(context.Background(), owner)

	assert.ErrorIs(t, err, errDB)
	assert.Nil(t, got, "no partially signed results")
}

// ---- Export -----------------------------------------------------------------

func TestPhotoService_Export(t *testing.T) {
	trip := ownedTripFixture()
	taken := time.Date(2025, 5, 3, 9, 0, 0, 0, time.UTC)
	var gotFilter domain.PhotoFilter
	photos := &mockPhotoRepo{
		listByOwner: func(_ context.Context, _ string, f domain.PhotoFilter) ([]domain.Photo, error) {
			gotFilter = f
			return []domain.Photo{
				{ID: uuid.New(), TripID: trip.ID, StorageKey: "a", CapturedAt: &taken, Caption: ptr("Tram 28")},
				{ID: uuid.New(), TripID: trip.ID, StorageKey: "b"},
			}, nil
		},
	}
	urls := &fakeURLs{}
	svc := service.NewPhotoService(tripRepoWith(trip), photos, &fakeBlobStore{}, urls, nil)

	rows, err := svc.Export(context.Background(), owner, trip.ID)

	require.NoError(t, err)
	require.NotNil(t, gotFilter.TripID)
	assert.Equal(t, trip.ID, *gotFilter.TripID)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-05-03", rows[0].Day)
	assert.Equal(t, "Tram 28", rows[0].Caption)
	assert.Equal(t, "Lisbon", rows[0].TripLocation)
	assert.Equal(t, domain.UnknownDateLabel, rows[1].Day)
	assert.Zero(t, urls.calls, "manifests never carry signed URLs")
}

func TestPhotoService_Export_Forbidden(t *testing.T) {
	trip := ownedTripFixture()
	svc := service.NewPhotoService(tripRepoWith(trip), &mockPhotoRepo{}, &fakeBlobStore{}, &fakeURLs{}, nil)

	_, err := svc.Export(context.Background(), stranger, trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
