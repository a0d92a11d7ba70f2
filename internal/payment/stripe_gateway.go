package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	return newStripeGateway(secretKey, nil)
}

func newStripeGateway(secretKey string, backends *stripe.Backends) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeGateway{api: api}
}

// Charge creates and confirms a PaymentIntent in one call. Anything other than a
// succeeded intent is reported as ErrPaymentFailed.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.AmountCents),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classifyStripeError("charge", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		slog.Warn("payment intent not succeeded", "payment_intent", pi.ID, "status", pi.Status)
		return nil, fmt.Errorf("%w: intent %s is %s", ErrPaymentFailed, pi.ID, pi.Status)
	}
	return &Charge{ID: pi.ID, Status: string(pi.Status), AmountCents: pi.Amount}, nil
}

// RefundIdempotencyKey is sent with every refund of paymentID. A payment is refunded at
// most once, so a retried or concurrent refund replays the first one instead of paying twice.
func RefundIdempotencyKey(paymentID string) string {
	return "refund-" + paymentID
}

func (g *StripeGateway) Refund(ctx context.Context, paymentID string, amountCents int64) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	params.SetIdempotencyKey(RefundIdempotencyKey(paymentID))

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, classifyStripeError("refund", err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status), AmountCents: r.Amount}, nil
}

// classifyStripeError maps card and request errors onto ErrPaymentFailed; API and
// connection failures stay opaque so the caller reports them as server errors.
func classifyStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %s", ErrPaymentFailed, stripeErr.Msg)
		}
	}
	return fmt.Errorf("stripe %s: %w", op, err)
}
