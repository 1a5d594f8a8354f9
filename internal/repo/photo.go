package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/footsteps/internal/domain"
)

// PhotoRepo defines the persistence operations for Photos.
// Photos carry no owner column; the owner is always the parent trip's user_id.
type PhotoRepo interface {
	// Create inserts a photo. The caller supplies the ID because it is part of
	// the storage key, which is written before the row.
	Create(ctx context.Context, photo domain.Photo) (domain.Photo, error)

	// GetWithOwner returns the photo and the user_id of its parent trip.
	// Returns domain.ErrNotFound if no photo with that ID exists.
	GetWithOwner(ctx context.Context, id uuid.UUID) (domain.Photo, string, error)

	// ListByOwner returns the owner's photos narrowed by f.
	ListByOwner(ctx context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error)

	// UpdateCaption sets or clears (nil) a photo's caption.
	UpdateCaption(ctx context.Context, id uuid.UUID, caption *string) (domain.Photo, error)

	// CountByOwner counts photos whose parent trip belongs to the owner.
	CountByOwner(ctx context.Context, userID string) (int64, error)
}

type pgPhotoRepo struct {
	db db
}

// NewPhotoRepo constructs a PhotoRepo backed by the provided db connection.
func NewPhotoRepo(db db) PhotoRepo {
	return &pgPhotoRepo{db: db}
}

const photoColumns = `p.id, p.trip_id, p.s3_key, p.captured_at, p.latitude, p.longitude, p.caption, p.tags, p.created_at`

func (r *pgPhotoRepo) Create(ctx context.Context, photo domain.Photo) (domain.Photo, error) {
	const q = `
		INSERT INTO photos AS p (id, trip_id, s3_key, captured_at, latitude, longitude, caption, tags)
		VALUES (@id, @trip_id, @s3_key, @captured_at, @latitude, @longitude, @caption, @tags)
		RETURNING ` + photoColumns

	tags := photo.Tags
	if tags == nil {
		tags = []string{}
	}

	args := pgx.NamedArgs{
		"id":          photo.ID,
		"trip_id":     photo.TripID,
		"s3_key":      photo.StorageKey,
		"captured_at": photo.CapturedAt,
		"latitude":    photo.Latitude,
		"longitude":   photo.Longitude,
		"caption":     photo.Caption,
		"tags":        tags,
	}

	result, err := scanPhoto(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Photo{}, fmt.Errorf("repo.PhotoRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgPhotoRepo) GetWithOwner(ctx context.Context, id uuid.UUID) (domain.Photo, string, error) {
	const q = `
		SELECT ` + photoColumns + `, t.user_id
		FROM photos p
		JOIN trips t ON t.id = p.trip_id
		WHERE p.id = @id`

	var owner string
	photo, err := scanPhoto(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}), &owner)
	if err != nil {
		return domain.Photo{}, "", fmt.Errorf("repo.PhotoRepo.GetWithOwner: %w", err)
	}
	return photo, owner, nil
}

// ListByOwner builds its WHERE and ORDER BY from f. Only fixed SQL fragments
// are concatenated; every value travels as a named argument.
func (r *pgPhotoRepo) ListByOwner(ctx context.Context, userID string, f domain.PhotoFilter) ([]domain.Photo, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT ` + photoColumns + `
		FROM photos p
		JOIN trips t ON t.id = p.trip_id
		WHERE t.user_id = @user_id`)

	args := pgx.NamedArgs{"user_id": userID}
	if f.TripID != nil {
		b.WriteString(` AND p.trip_id = @trip_id`)
		args["trip_id"] = *f.TripID
	}
	if f.HasCapturedAt {
		b.WriteString(` AND p.captured_at IS NOT NULL`)
	}
	if f.HasCoordinates {
		b.WriteString(` AND p.latitude IS NOT NULL AND p.longitude IS NOT NULL`)
	}

	switch f.Order {
	case domain.OrderCreatedDesc:
		b.WriteString(` ORDER BY p.created_at DESC, p.id`)
	case domain.OrderCapturedAsc:
		b.WriteString(` ORDER BY p.captured_at ASC NULLS LAST, p.created_at, p.id`)
	default:
		b.WriteString(` ORDER BY p.captured_at DESC NULLS LAST, p.created_at DESC, p.id`)
	}

	if f.Limit > 0 {
		b.WriteString(` LIMIT @limit`)
		args["limit"] = f.Limit
	}

	rows, err := r.db.Query(ctx, b.String(), args)
	if err != nil {
		return nil, fmt.Errorf("repo.PhotoRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.PhotoRepo.ListByOwner: scan: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PhotoRepo.ListByOwner: rows: %w", err)
	}
	return photos, nil
}

func (r *pgPhotoRepo) UpdateCaption(ctx context.Context, id uuid.UUID, caption *string) (domain.Photo, error) {
	const q = `
		UPDATE photos AS p
		SET caption = @caption
		WHERE p.id = @id
		RETURNING ` + photoColumns

	result, err := scanPhoto(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "caption": caption}))
	if err != nil {
		return domain.Photo{}, fmt.Errorf("repo.PhotoRepo.UpdateCaption: %w", err)
	}
	return result, nil
}

func (r *pgPhotoRepo) CountByOwner(ctx context.Context, userID string) (int64, error) {
	const q = `
		SELECT count(*)
		FROM photos p
		JOIN trips t ON t.id = p.trip_id
		WHERE t.user_id = @user_id`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.PhotoRepo.CountByOwner: %w", err)
	}
	return n, nil
}

// scanPhoto maps photoColumns into a domain.Photo. extra receives any
// trailing columns selected after photoColumns. pgx decodes timestamptz in
// the server's local zone; timestamps leave here in UTC.
func scanPhoto(s scanner, extra ...any) (domain.Photo, error) {
	var (
		p        domain.Photo
		id       pgtype.UUID
		tripID   pgtype.UUID
		captured pgtype.Timestamptz
		lat      pgtype.Float8
		lon      pgtype.Float8
		caption  pgtype.Text
	)

	dest := append([]any{&id, &tripID, &p.StorageKey, &captured, &lat, &lon, &caption, &p.Tags, &p.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Photo{}, domain.ErrNotFound
		}
		return domain.Photo{}, err
	}

	p.ID = uuid.UUID(id.Bytes)
	p.TripID = uuid.UUID(tripID.Bytes)
	if captured.Valid {
		ts := captured.Time.UTC()
		p.CapturedAt = &ts
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		p.Latitude, p.Longitude = &la, &lo
	}
	p.Caption = textPtr(caption)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}
