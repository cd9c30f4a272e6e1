package models

import "time"

// Queue subjects
const (
	SubjectBookingFinalize = "booking.finalize"
)

// FinalizationRequest asks the worker pool to finalize one booking.
// Delivery is at-least-once, so consumers must tolerate duplicates.
type FinalizationRequest struct {
	BookingID int64     `json:"booking_id"`
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}
