package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"turnstile/internal/database"
	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (name, total_capacity, available_capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.TotalCapacity,
		event.AvailableCapacity,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, name, total_capacity, available_capacity, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.TotalCapacity,
		&event.AvailableCapacity,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return event, err
}

// AvailableCapacity reads the latest committed capacity. Called under the
// per-event lock, where a plain read is enough; the query goes straight to
// the row, never through a cache.
func (r *EventRepository) AvailableCapacity(ctx context.Context, id int64) (int, error) {
	var available int
	query := `SELECT available_capacity FROM events WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrNotFound
	}

	return available, err
}

// CommitBooking decrements the event's available capacity and inserts the
// booking row in one transaction. The conditional decrement is the store-side
// defense: if capacity dropped below the requested quantity since the
// lock-protected read, the whole unit fails with ErrConflict and no booking
// is created.
func (r *EventRepository) CommitBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	decrement := `
		UPDATE events
		SET available_capacity = available_capacity - $1, updated_at = NOW()
		WHERE id = $2 AND available_capacity >= $1`

	res, err := tx.ExecContext(ctx, decrement, booking.Quantity, booking.EventID)
	if err != nil {
		return fmt.Errorf("decrement capacity: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrConflict
	}

	insert := `
		INSERT INTO bookings (event_id, user_id, quantity, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, insert,
		booking.EventID,
		booking.UserID,
		booking.Quantity,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	return tx.Commit()
}

// Stats aggregates booking progress for one event
func (r *EventRepository) Stats(ctx context.Context, id int64) (*models.EventStats, error) {
	stats := &models.EventStats{EventID: id}
	query := `
		SELECT e.total_capacity, e.available_capacity,
		       COUNT(b.id) FILTER (WHERE b.status = 'FINALIZED'),
		       COUNT(b.id) FILTER (WHERE b.status = 'FAILED')
		FROM events e
		LEFT JOIN bookings b ON b.event_id = e.id
		WHERE e.id = $1
		GROUP BY e.total_capacity, e.available_capacity`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&stats.Total,
		&stats.Available,
		&stats.Finalized,
		&stats.Failed,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	stats.Booked = stats.Total - stats.Available
	return stats, nil
}

// OverallReport aggregates totals across all events
func (r *EventRepository) OverallReport(ctx context.Context) (*models.OverallReport, error) {
	report := &models.OverallReport{}
	query := `
		SELECT COALESCE(SUM(total_capacity), 0),
		       COALESCE(SUM(total_capacity - available_capacity), 0)
		FROM events`

	if err := r.db.QueryRowContext(ctx, query).Scan(&report.TotalCapacity, &report.TotalReserved); err != nil {
		return nil, err
	}

	finalized := `SELECT COUNT(*) FROM bookings WHERE status = 'FINALIZED'`
	if err := r.db.QueryRowContext(ctx, finalized).Scan(&report.TotalFinalized); err != nil {
		return nil, err
	}

	return report, nil
}
