package service

import (
	"context"
	"fmt"
	"strings"

	apperrors "turnstile/internal/errors"
	"turnstile/internal/models"
)

type EventService struct {
	events EventStore
}

func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

func (s *EventService) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", apperrors.ErrInvalidRequest)
	}
	if req.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", apperrors.ErrInvalidRequest)
	}

	event := &models.Event{
		Name:              req.Name,
		TotalCapacity:     req.Capacity,
		AvailableCapacity: req.Capacity,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

func (s *EventService) Stats(ctx context.Context, eventID int64) (*models.EventStats, error) {
	stats, err := s.events.Stats(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event stats: %w", err)
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: event %d", apperrors.ErrNotFound, eventID)
	}
	return stats, nil
}

func (s *EventService) Report(ctx context.Context) (*models.OverallReport, error) {
	report, err := s.events.OverallReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	return report, nil
}
