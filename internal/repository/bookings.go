package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"turnstile/internal/database"
	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, event_id, user_id, quantity, status, confirmation_code, created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.EventID,
		&booking.UserID,
		&booking.Quantity,
		&booking.Status,
		&booking.ConfirmationCode,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return booking, err
}

// UpdateStatus moves a PENDING booking into a terminal state. Terminal states
// are immutable: repeating the same transition is a no-op (at-least-once
// delivery makes duplicates routine), while a different transition on an
// already-terminal booking is ErrConflict.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string, confirmationCode *string) error {
	query := `
		UPDATE bookings
		SET status = $2, confirmation_code = COALESCE($3, confirmation_code), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	res, err := r.db.ExecContext(ctx, query, id, status, confirmationCode)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	if current == status {
		return nil
	}
	return apperrors.ErrConflict
}

// PendingOlderThan lists PENDING bookings created before the cutoff, oldest
// first. The reconciliation sweep re-enqueues them.
func (r *BookingRepository) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT id, event_id, user_id, quantity, status, confirmation_code, created_at, updated_at
		FROM bookings
		WHERE status = 'PENDING' AND created_at < $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.EventID,
			&booking.UserID,
			&booking.Quantity,
			&booking.Status,
			&booking.ConfirmationCode,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
