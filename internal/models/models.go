package models

// CreateEventRequest is the payload for creating an event
type CreateEventRequest struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity"`
}

// CreateEventResponse is returned after an event is created
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// CreateBookingRequest is the payload for booking tickets
type CreateBookingRequest struct {
	EventID  int64 `json:"event_id" binding:"required"`
	UserID   int64 `json:"user_id"`
	Quantity int   `json:"quantity"`
}

// BookingResponse is the view of a booking returned by the API
type BookingResponse struct {
	ID               int64   `json:"id"`
	EventID          int64   `json:"event_id"`
	UserID           int64   `json:"user_id"`
	Quantity         int     `json:"quantity"`
	Status           string  `json:"status"`
	ConfirmationCode *string `json:"confirmation_code,omitempty"`
	CreatedAt        string  `json:"created_at"`
}
