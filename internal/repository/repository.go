package repository

import (
	"turnstile/internal/database"
)

type Repositories struct {
	Events   *EventRepository
	Bookings *BookingRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Events:   NewEventRepository(db),
		Bookings: NewBookingRepository(db),
	}
}
