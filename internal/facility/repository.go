package facility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbConn is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type dbConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores facilities and their configs in Postgres.
type Repository struct {
	db dbConn
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("facility: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithConn allows injecting mocks for tests.
func NewRepositoryWithConn(db dbConn) *Repository {
	return &Repository{db: db}
}

// Create inserts a facility row.
func (r *Repository) Create(ctx context.Context, name, timezone, phoneNumber string) (*Facility, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone)
	}

	id := uuid.New()
	query := `
		INSERT INTO facilities (id, name, timezone, phone_number)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query, id, name, timezone, phoneNumber).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("facility: insert failed: %w", err)
	}

	return &Facility{
		ID:          id,
		Name:        name,
		Timezone:    timezone,
		PhoneNumber: phoneNumber,
		CreatedAt:   createdAt,
	}, nil
}

// GetWithConfig loads a facility and its config in one round trip. A
// missing facility yields ErrNotFound; a facility without a config row
// yields ErrConfigMissing.
func (r *Repository) GetWithConfig(ctx context.Context, id uuid.UUID) (*WithConfig, error) {
	query := `
		SELECT f.id, f.name, f.timezone, f.phone_number, f.created_at,
		       c.open_hours, c.slot_minutes, c.updated_at
		FROM facilities f
		LEFT JOIN facility_configs c ON c.facility_id = f.id
		WHERE f.id = $1
	`
	var (
		out         WithConfig
		openHours   map[string][]string
		slotMinutes *int
		updatedAt   *time.Time
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&out.Facility.ID,
		&out.Facility.Name,
		&out.Facility.Timezone,
		&out.Facility.PhoneNumber,
		&out.Facility.CreatedAt,
		&openHours,
		&slotMinutes,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("facility: select failed: %w", err)
	}
	if slotMinutes == nil {
		return nil, ErrConfigMissing
	}

	out.Config = Config{
		FacilityID:  out.Facility.ID,
		OpenHours:   openHours,
		SlotMinutes: *slotMinutes,
	}
	if updatedAt != nil {
		out.Config.UpdatedAt = *updatedAt
	}
	return &out, nil
}

// LookupByNumber resolves the facility that owns a phone number. The
// voice webhook uses the dialed number to pick the facility for a call.
func (r *Repository) LookupByNumber(ctx context.Context, phoneNumber string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM facilities WHERE phone_number = $1`, phoneNumber).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("facility: lookup by number failed: %w", err)
	}
	return id, nil
}

// UpsertConfig validates and writes the facility's scheduling config.
func (r *Repository) UpsertConfig(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO facility_configs (facility_id, open_hours, slot_minutes, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (facility_id) DO UPDATE
		SET open_hours = EXCLUDED.open_hours,
		    slot_minutes = EXCLUDED.slot_minutes,
		    updated_at = now()
	`
	ct, err := r.db.Exec(ctx, query, cfg.FacilityID, cfg.OpenHours, cfg.SlotMinutes)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: the facility row itself is missing.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("facility: upsert config failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("facility: upsert config affected no rows")
	}
	return nil
}
