package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencourt/receptionist/internal/schedule"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// dbConn is the pgxpool surface the repository needs; pgxmock satisfies it
// in tests.
type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository persists customers and bookings. The bookings table carries an
// exclusion constraint on (facility_id, tstzrange(start_time, end_time))
// for confirmed rows, which is the authoritative no-double-booking guard.
type Repository struct {
	db dbConn
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

// UpsertCustomer resolves (facility, phone) to one customer row. A single
// INSERT ... ON CONFLICT collapses the create/update race: concurrent
// resolutions for a new phone number converge on the same row, and an
// empty incoming name never clobbers a stored one.
func (r *Repository) UpsertCustomer(ctx context.Context, facilityID uuid.UUID, name, phone string) (*Customer, error) {
	query := `
		INSERT INTO customers (id, facility_id, name, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (facility_id, phone) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), customers.name)
		RETURNING id, name, created_at
	`
	customer := &Customer{FacilityID: facilityID, Phone: phone}
	err := r.db.QueryRow(ctx, query, uuid.New(), facilityID, name, phone).
		Scan(&customer.ID, &customer.Name, &customer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("booking: upsert customer: %w", err)
	}
	return customer, nil
}

// ListConfirmedBetween returns the intervals of confirmed bookings that
// overlap the half-open window, ordered by start.
func (r *Repository) ListConfirmedBetween(ctx context.Context, facilityID uuid.UUID, windowStart, windowEnd time.Time) ([]schedule.Slot, error) {
	query := `
		SELECT start_time, end_time
		FROM bookings
		WHERE facility_id = $1
		  AND status = 'confirmed'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`
	rows, err := r.db.Query(ctx, query, facilityID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("booking: list confirmed: %w", err)
	}
	defer rows.Close()

	var intervals []schedule.Slot
	for rows.Next() {
		var s schedule.Slot
		if err := rows.Scan(&s.Start, &s.End); err != nil {
			return nil, fmt.Errorf("booking: scan confirmed: %w", err)
		}
		intervals = append(intervals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate confirmed: %w", err)
	}
	return intervals, nil
}

// CreateConfirmed commits one booking atomically. The row is inserted
// first so the exclusion constraint arbitrates concurrent attempts, then
// register is invoked with the transaction still open to create the remote
// calendar event, and its event reference is stored before commit. Any
// failure rolls the whole thing back: a booking row never exists without a
// successful external registration.
//
// If the final commit itself fails after register succeeded, the caller is
// told via the returned event id so it can compensate remotely.
func (r *Repository) CreateConfirmed(ctx context.Context, b *Booking, register func(ctx context.Context) (string, error)) (createdEventID string, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("booking: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `
		INSERT INTO bookings (id, facility_id, customer_id, start_time, end_time, status, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	b.ID = uuid.New()
	b.Status = StatusConfirmed
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	err = tx.QueryRow(ctx, insert,
		b.ID, b.FacilityID, b.CustomerID,
		b.StartTime, b.EndTime,
		b.Status, b.Source,
	).Scan(&b.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
			return "", ErrSlotTaken
		}
		return "", fmt.Errorf("booking: insert: %w", err)
	}

	eventID, err := register(ctx)
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET calendar_event_id = $1 WHERE id = $2`, eventID, b.ID); err != nil {
		return eventID, fmt.Errorf("booking: store event id: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return eventID, fmt.Errorf("booking: commit: %w", err)
	}
	b.CalendarEventID = eventID
	return eventID, nil
}
