package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"

	"github.com/shreyakodukula/parking/internal/domain"
)

const (
	EventPaymentIntentFailed = "payment_intent.payment_failed"
	EventChargeRefunded      = "charge.refunded"
)

// ErrMalformedNotification marks a body that can never be applied, however often it is retried.
var ErrMalformedNotification = errors.New("malformed payment notification")

// Notification is the part of a processor event that affects a booking.
type Notification struct {
	EventID   string
	EventType string
	PaymentID string
	Status    domain.PaymentStatus
}

// ParseNotification decodes a Stripe event body. It returns (nil, nil) for event
// types that do not change booking state.
func ParseNotification(body []byte) (*Notification, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: decode stripe event: %v", ErrMalformedNotification, err)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: stripe event %s has no data", ErrMalformedNotification, event.ID)
	}

	n := &Notification{EventID: event.ID, EventType: event.Type}
	switch event.Type {
	case EventPaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: decode payment intent: %v", ErrMalformedNotification, err)
		}
		n.PaymentID = pi.ID
		n.Status = domain.PaymentFailed
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("%w: decode charge: %v", ErrMalformedNotification, err)
		}
		if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
			return nil, fmt.Errorf("%w: charge %s has no payment intent", ErrMalformedNotification, ch.ID)
		}
		n.PaymentID = ch.PaymentIntent.ID
		n.Status = domain.PaymentRefunded
	default:
		return nil, nil
	}
	return n, nil
}
