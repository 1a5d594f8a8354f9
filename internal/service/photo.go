package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/pkordes/footsteps/internal/access"
	"github.com/pkordes/footsteps/internal/domain"
	"github.com/pkordes/footsteps/internal/metadata"
	"github.com/pkordes/footsteps/internal/repo"
	"github.com/pkordes/footsteps/internal/storage"
)

// MaxCaptionRunes is the longest caption accepted after sanitizing.
const MaxCaptionRunes = 500

// allowedMediaTypes maps each accepted upload content type to its media kind.
var allowedMediaTypes = map[string]string{
	"image/jpeg":      "image",
	"image/png":       "image",
	"image/webp":      "image",
	"image/gif":       "image",
	"video/mp4":       "video",
	"video/quicktime": "video",
	"video/webm":      "video",
}

// BlobStore writes uploaded bytes. *storage.S3Store satisfies it.
type BlobStore interface {
	Put(ctx context.Context, body []byte, contentType string, key storage.ObjectKey) (string, error)
	Delete(ctx context.Context, key string) error
}

// IngestObserver is told about every upload. *metrics.Collector satisfies it.
type IngestObserver interface {
	ObserveUpload(kind string, err error)
	ObserveMetadata(hasCapturedAt, hasLocation bool)
}

// PhotoService implements upload, captioning and photo listings.
type PhotoService struct {
	trips    repo.TripRepo
	photos   repo.PhotoRepo
	blobs    BlobStore
	urls     URLResolver
	observer IngestObserver
	policy   *bluemonday.Policy
}

// NewPhotoService constructs a PhotoService. observer may be nil.
func NewPhotoService(trips repo.TripRepo, photos repo.PhotoRepo, blobs BlobStore, urls URLResolver, observer IngestObserver) *PhotoService {
	if observer == nil {
		observer = nopObserver{}
	}
	return &PhotoService{
		trips:    trips,
		photos:   photos,
		blobs:    blobs,
		urls:     urls,
		observer: observer,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Upload stores a new photo in a trip the requester owns.
// Embedded capture time and location are extracted on a best-effort basis;
// a file without usable metadata is still accepted.
func (s *PhotoService) Upload(ctx context.Context, requesterID string, tripID uuid.UUID, up domain.Upload) (domain.Photo, error) {
	trip, err := ownedTrip(ctx, s.trips, requesterID, tripID)
	if err != nil {
		return domain.Photo{}, err
	}

	contentType, kind, err := mediaKind(up.ContentType)
	if err != nil {
		return domain.Photo{}, err
	}
	if len(up.Data) == 0 {
		return domain.Photo{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}

	md := metadata.Extract(up.Data, contentType)
	s.observer.ObserveMetadata(md.CapturedAt != nil, md.Latitude != nil)

	key := storage.ObjectKey{
		UserID:   trip.UserID,
		TripID:   trip.ID,
		PhotoID:  uuid.New(),
		Filename: up.Filename,
	}
	storedKey, err := s.blobs.Put(ctx, up.Data, contentType, key)
	s.observer.ObserveUpload(kind, err)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("service.PhotoService.Upload: %w", err)
	}

	photo, err := s.photos.Create(ctx, domain.Photo{
		ID:         key.PhotoID,
		TripID:     trip.ID,
		StorageKey: storedKey,
		CapturedAt: md.CapturedAt,
		Latitude:   md.Latitude,
		Longitude:  md.Longitude,
		Tags:       []string{},
	})
	if err != nil {
		s.discardBlob(ctx, storedKey)
		return domain.Photo{}, fmt.Errorf("service.PhotoService.Upload: %w", err)
	}
	return s.withViewURL(ctx, photo)
}

// discardBlob removes an object whose row was never written. It runs even if
// ctx is already cancelled; a failure leaves the key in the log for sweeping.
func (s *PhotoService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		slog.WarnContext(ctx, "orphaned photo object", "key", key, "error", err)
	}
}

// Get returns one photo whose parent trip the requester owns.
func (s *PhotoService) Get(ctx context.Context, requesterID string, id uuid.UUID) (domain.Photo, error) {
	photo, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return domain.Photo{}, err
	}
	return s.withViewURL(ctx, photo)
}

// UpdateCaption sanitizes caption to plain text and stores it.
// A caption that is empty after sanitizing clears the stored one.
func (s *PhotoService) UpdateCaption(ctx context.Context, requesterID string, id uuid.UUID, caption string) (domain.Photo, error) {
	if _, err := s.owned(ctx, requesterID, id); err != nil {
		return domain.Photo{}, err
	}

	clean := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(caption)))
	if utf8.RuneCountInString(clean) > MaxCaptionRunes {
		return domain.Photo{}, fmt.Errorf("%w: caption cannot exceed %d characters", domain.ErrValidation, MaxCaptionRunes)
	}

	var value *string
	if clean != "" {
		value = &clean
	}

	updated, err := s.photos.UpdateCaption(ctx, id, value)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("service.PhotoService.UpdateCaption: %w", err)
	}
	return s.withViewURL(ctx, updated)
}

// ListByTripGrouped returns a trip's photos bucketed by capture day.
func (s *PhotoService) ListByTripGrouped(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.DayGroup, error) {
	trip, err := ownedTrip(ctx, s.trips, requesterID, tripID)
	if err != nil {
		return nil, err
	}

	photos, err := s.photos.ListByOwner(ctx, requesterID, domain.PhotoFilter{
		TripID: &trip.ID,
		Order:  domain.OrderCapturedAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("service.PhotoService.ListByTripGrouped: %w", err)
	}

	if err := resolvePhotos(ctx, s.urls, photos); err != nil {
		return nil, fmt.Errorf("service.PhotoService.ListByTripGrouped: %w", err)
	}
	return domain.GroupByDay(photos), nil
}

// Export returns a trip's photo manifest, one row per photo in day-group
// order. Rows carry no view URLs, so nothing is signed.
func (s *PhotoService) Export(ctx context.Context, requesterID string, tripID uuid.UUID) ([]domain.ExportRow, error) {
	trip, err := ownedTrip(ctx, s.trips, requesterID, tripID)
	if err != nil {
		return nil, err
	}

	photos, err := s.photos.ListByOwner(ctx, requesterID, domain.PhotoFilter{
		TripID: &trip.ID,
		Order:  domain.OrderCapturedAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("service.PhotoService.Export: %w", err)
	}
	return domain.ExportRows(trip, domain.GroupByDay(photos)), nil
}

// ListMapped returns every photo of the requester that carries coordinates,
// newest taken first.
func (s *PhotoService) ListMapped(ctx context.Context, requesterID string) ([]domain.Photo, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return nil, err
	}

	photos, err := s.photos.ListByOwner(ctx, requesterID, domain.PhotoFilter{
		HasCoordinates: true,
		Order:          domain.OrderCapturedDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("service.PhotoService.ListMapped: %w", err)
	}

	if err := resolvePhotos(ctx, s.urls, photos); err != nil {
		return nil, fmt.Errorf("service.PhotoService.ListMapped: %w", err)
	}
	return photos, nil
}

// owned fetches a photo with its trip owner and applies the guard.
func (s *PhotoService) owned(ctx context.Context, requesterID string, id uuid.UUID) (domain.Photo, error) {
	if err := access.RequireRequester(requesterID); err != nil {
		return domain.Photo{}, err
	}
	photo, owner, err := s.photos.GetWithOwner(ctx, id)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("photo %s: %w", id, err)
	}
	if err := access.Authorize(requesterID, owner); err != nil {
		return domain.Photo{}, fmt.Errorf("photo %s: %w", id, err)
	}
	return photo, nil
}

func (s *PhotoService) withViewURL(ctx context.Context, p domain.Photo) (domain.Photo, error) {
	u, err := s.urls.Resolve(ctx, p.StorageKey)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("service.PhotoService: view url: %w", err)
	}
	p.ViewURL = u
	return p, nil
}

// resolvePhotos fills ViewURL on every photo, in place, in one batch.
func resolvePhotos(ctx context.Context, urls URLResolver, photos []domain.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	refs := make([]string, len(photos))
	for i, p := range photos {
		refs[i] = p.StorageKey
	}
	resolved, err := urls.ResolveAll(ctx, refs)
	if err != nil {
		return fmt.Errorf("view urls: %w", err)
	}
	for i := range photos {
		photos[i].ViewURL = resolved[i]
	}
	return nil
}

// mediaKind normalizes a declared content type and checks it against the
// allow-list.
func mediaKind(declared string) (contentType, kind string, err error) {
	mt, _, perr := mime.ParseMediaType(declared)
	if perr != nil {
		return "", "", fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, declared)
	}
	kind, ok := allowedMediaTypes[mt]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported file type %q", domain.ErrValidation, mt)
	}
	return mt, kind, nil
}

type nopObserver struct{}

func (nopObserver) ObserveUpload(string, error) {}
func (nopObserver) ObserveMetadata(bool, bool) {}
