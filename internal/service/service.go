package service

type Services struct {
	Bookings *BookingService
	Events   *EventService
}

func NewServices(events EventStore, bookings BookingStore, locker Locker, queue FinalizationQueue, cfg AdmissionConfig) *Services {
	return &Services{
		Bookings: NewBookingService(events, bookings, locker, queue, cfg),
		Events:   NewEventService(events),
	}
}
