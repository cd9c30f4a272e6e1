package models

import (
	"time"
)

// Booking status values. PENDING bookings hold reserved capacity and are
// waiting for finalization; FINALIZED and FAILED are terminal.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusFinalized = "FINALIZED"
	BookingStatusFailed    = "FAILED"
)

// Event represents a bookable event with a fixed capacity
type Event struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	TotalCapacity     int       `json:"total_capacity" db:"total_capacity"`
	AvailableCapacity int       `json:"available_capacity" db:"available_capacity"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Booking represents a capacity reservation against an event.
// Its quantity was already subtracted from the event's available capacity
// when the row was created.
type Booking struct {
	ID               int64     `json:"id" db:"id"`
	EventID          int64     `json:"event_id" db:"event_id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Quantity         int       `json:"quantity" db:"quantity"`
	Status           string    `json:"status" db:"status"`
	ConfirmationCode *string   `json:"confirmation_code,omitempty" db:"confirmation_code"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// EventStats aggregates booking progress for one event
type EventStats struct {
	EventID   int64 `json:"event_id"`
	Total     int   `json:"total"`
	Available int   `json:"available"`
	Booked    int   `json:"booked"`
	Finalized int   `json:"finalized"`
	Failed    int   `json:"failed"`
}

// OverallReport aggregates totals across all events
type OverallReport struct {
	TotalCapacity  int `json:"total_capacity"`
	TotalReserved  int `json:"total_reserved"`
	TotalFinalized int `json:"total_finalized"`
}
