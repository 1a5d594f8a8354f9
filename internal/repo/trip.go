// Package repo contains all database access logic for the Footsteps API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/footsteps/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo defines the persistence operations for Trips.
// Every listing and aggregate is filtered by owner in the query itself.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id and created_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key regardless of owner.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListByOwner returns one page of the owner's trips ordered by start_date
	// descending, plus the owner's total trip count.
	ListByOwner(ctx context.Context, userID string, p domain.PaginationParams) ([]domain.Trip, int64, error)

	// Update overwrites the mutable fields of an existing trip and returns the
	// updated record. Returns domain.ErrNotFound if no trip with that ID exists.
	Update(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Delete removes a trip by ID. Its photos go with it (ON DELETE CASCADE).
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByOwner returns how many trips the owner has.
	CountByOwner(ctx context.Context, userID string) (int64, error)

	// CountLocations returns the number of distinct non-null descriptions
	// across the owner's trips.
	CountLocations(ctx context.Context, userID string) (int64, error)

	// ListUpcoming returns up to limit of the owner's trips starting strictly
	// after the given instant, soonest first.
	ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]domain.Trip, error)

	// ListRecentlyCreated returns up to limit of the owner's trips, newest
	// created_at first.
	ListRecentlyCreated(ctx context.Context, userID string, limit int) ([]domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, user_id, name, description, start_date, end_date, cover_photo_ref, created_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (user_id, name, description, start_date, end_date, cover_photo_ref)
		VALUES (@user_id, @name, @description, @start_date, @end_date, @cover_photo_ref)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"user_id":         trip.UserID,
		"name":            trip.Name,
		"description":     trip.Description, // nil becomes NULL
		"start_date":      trip.StartDate,
		"end_date":        trip.EndDate,
		"cover_photo_ref": trip.CoverRef,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByOwner returns one page of the owner's trips, most recent start first.
func (r *pgTripRepo) ListByOwner(ctx context.Context, userID string, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id
		ORDER BY start_date DESC, id
		LIMIT @limit OFFSET @offset`

	total, err := r.CountByOwner(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByOwner: %w", err)
	}

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByOwner: %w", err)
	}
	return trips, total, nil
}

// Update overwrites the mutable fields of a trip and returns the updated record.
func (r *pgTripRepo) Update(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET name            = @name,
		    description     = @description,
		    start_date      = @start_date,
		    end_date        = @end_date,
		    cover_photo_ref = @cover_photo_ref
		WHERE id = @id
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":              trip.ID,
		"name":            trip.Name,
		"description":     trip.Description,
		"start_date":      trip.StartDate,
		"end_date":        trip.EndDate,
		"cover_photo_ref": trip.CoverRef,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a trip by primary key.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM trips WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTripRepo) CountByOwner(ctx context.Context, userID string) (int64, error) {
	const q = `SELECT count(*) FROM trips WHERE user_id = @user_id`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.CountByOwner: %w", err)
	}
	return n, nil
}

func (r *pgTripRepo) CountLocations(ctx context.Context, userID string) (int64, error) {
	const q = `
		SELECT count(DISTINCT description)
		FROM trips
		WHERE user_id = @user_id AND description IS NOT NULL`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TripRepo.CountLocations: %w", err)
	}
	return n, nil
}

func (r *pgTripRepo) ListUpcoming(ctx context.Context, userID string, after time.Time, limit int) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id AND start_date > @after
		ORDER BY start_date ASC, id
		LIMIT @limit`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"user_id": userID, "after": after, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListUpcoming: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) ListRecentlyCreated(ctx context.Context, userID string, limit int) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id
		ORDER BY created_at DESC, id
		LIMIT @limit`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"user_id": userID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListRecentlyCreated: %w", err)
	}
	return trips, nil
}

func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []domain.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return trips, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t     domain.Trip
		id    pgtype.UUID
		desc  pgtype.Text
		cover pgtype.Text
	)

	err := s.Scan(&id, &t.UserID, &t.Name, &desc, &t.StartDate, &t.EndDate, &cover, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = t.StartDate.UTC()
	t.EndDate = t.EndDate.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.Description = textPtr(desc)
	t.CoverRef = textPtr(cover)
	return t, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
