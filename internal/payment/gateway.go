// Package payment wraps the card processor used to charge and refund bookings.
package payment

import (
	"context"
	"errors"
)

// ErrPaymentFailed is returned when the processor declines or does not confirm a charge.
var ErrPaymentFailed = errors.New("payment failed")

type ChargeRequest struct {
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	Description     string
	Metadata        map[string]string
}

type Charge struct {
	ID          string
	Status      string
	AmountCents int64
}

type Refund struct {
	ID          string
	Status      string
	AmountCents int64
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
	// Refund is idempotent per paymentID: repeating it returns the original refund.
	Refund(ctx context.Context, paymentID string, amountCents int64) (*Refund, error)
}
