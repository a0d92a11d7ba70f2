// Package messaging carries booking events out of the service and payment
// notifications into it.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shreyakodukula/parking/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookingEvent) error
}

// NewBookingEvent stamps an event with a fresh id and the current time.
func NewBookingEvent(eventType domain.BookingEventType, booking domain.Booking) domain.BookingEvent {
	return domain.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Booking:    booking,
		OccurredAt: time.Now().UTC(),
	}
}

func encodeEvent(event domain.BookingEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal booking event: %w", err)
	}
	return body, nil
}

// NopPublisher drops events. Used when no event bus is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.BookingEvent) error { return nil }
