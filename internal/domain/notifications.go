package domain

import "time"

type NotificationType string

const (
	NotificationSlotStatus       NotificationType = "slot_status"
	NotificationBookingCreated   NotificationType = "booking_created"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
)

// SlotNotification is pushed to dashboards over WebSocket.
type SlotNotification struct {
	Type       NotificationType `json:"type"`
	SlotID     int              `json:"slot_id"`
	SlotNumber string           `json:"slot_number,omitempty"`
	Status     SlotStatus       `json:"status,omitempty"`
	BookingID  int              `json:"booking_id,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// SignagePayload is published to the per-slot MQTT topic.
type SignagePayload struct {
	SlotNumber string     `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type BookingEventType string

const (
	EventBookingCreated   BookingEventType = "booking.created"
	EventBookingCancelled BookingEventType = "booking.cancelled"
	EventBookingCompleted BookingEventType = "booking.completed"
)

type BookingEvent struct {
	ID         string           `json:"id"`
	Type       BookingEventType `json:"type"`
	Booking    Booking          `json:"booking"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// SlotStatusChange is reported by the lifecycle sweep for every slot whose status moved.
type SlotStatusChange struct {
	SlotID     int        `json:"slot_id"`
	SlotNumber string     `json:"slot_number"`
	Status     SlotStatus `json:"status"`
}
