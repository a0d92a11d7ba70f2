package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/messaging"
)

// SlotBroadcaster pushes notifications to connected dashboards.
// Kept as an interface so the service does not import the api package.
type SlotBroadcaster interface {
	BroadcastSlotNotification(n domain.SlotNotification)
}

type SignageUpdater interface {
	PublishSlotStatus(ctx context.Context, slotNumber string, status domain.SlotStatus) error
}

// SlotCache is the read-through cache in front of occupancy and availability queries.
type SlotCache interface {
	Occupancy(ctx context.Context, load func(context.Context) (*domain.OccupancyStats, error)) (*domain.OccupancyStats, error)
	AvailableSlots(ctx context.Context, load func(context.Context) ([]domain.ParkingSlot, error)) ([]domain.ParkingSlot, error)
	Invalidate(ctx context.Context)
}

// Notifier fans booking and slot changes out to WebSocket clients, slot signage and
// the event bus. Each sink is optional; failures are logged and swallowed.
type Notifier struct {
	ws      SlotBroadcaster
	signage SignageUpdater
	events  messaging.EventPublisher
}

func NewNotifier(ws SlotBroadcaster, signage SignageUpdater, events messaging.EventPublisher) *Notifier {
	return &Notifier{ws: ws, signage: signage, events: events}
}

func (n *Notifier) BookingCreated(ctx context.Context, booking domain.Booking, slotNumber string) {
	n.bookingChanged(ctx, domain.EventBookingCreated, domain.NotificationBookingCreated, booking, slotNumber)
}

func (n *Notifier) BookingCancelled(ctx context.Context, booking domain.Booking, slotNumber string) {
	n.bookingChanged(ctx, domain.EventBookingCancelled, domain.NotificationBookingCancelled, booking, slotNumber)
}

func (n *Notifier) BookingCompleted(ctx context.Context, booking domain.Booking) {
	n.publish(ctx, domain.EventBookingCompleted, booking)
}

// SlotStatusChanged updates the slot's sign and tells dashboards.
func (n *Notifier) SlotStatusChanged(ctx context.Context, change domain.SlotStatusChange) {
	if n == nil {
		return
	}
	if n.signage != nil {
		if err := n.signage.PublishSlotStatus(ctx, change.SlotNumber, change.Status); err != nil {
			slog.Error("signage update failed", "slot_id", change.SlotID, "error", err)
		}
	}
	if n.ws != nil {
		n.ws.BroadcastSlotNotification(domain.SlotNotification{
			Type:       domain.NotificationSlotStatus,
			SlotID:     change.SlotID,
			SlotNumber: change.SlotNumber,
			Status:     change.Status,
			Timestamp:  time.Now().UTC(),
		})
	}
}

func (n *Notifier) bookingChanged(ctx context.Context, eventType domain.BookingEventType, wsType domain.NotificationType, booking domain.Booking, slotNumber string) {
	if n == nil {
		return
	}
	n.publish(ctx, eventType, booking)
	if n.ws != nil {
		n.ws.BroadcastSlotNotification(domain.SlotNotification{
			Type:       wsType,
			SlotID:     booking.SlotID,
			SlotNumber: slotNumber,
			BookingID:  booking.ID,
			Timestamp:  time.Now().UTC(),
		})
	}
}

func (n *Notifier) publish(ctx context.Context, eventType domain.BookingEventType, booking domain.Booking) {
	if n == nil || n.events == nil {
		return
	}
	event := messaging.NewBookingEvent(eventType, booking)
	if err := n.events.Publish(ctx, event); err != nil {
		slog.Error("booking event publish failed", "event_id", event.ID, "type", eventType, "booking_id", booking.ID, "error", err)
	}
}
