package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v72"
)

func newTestGateway(t *testing.T, h http.HandlerFunc) *StripeGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return newStripeGateway("sk_test_123", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
}

func chargeRequest() ChargeRequest {
	return ChargeRequest{
		AmountCents:     1500,
		Currency:        "usd",
		PaymentMethodID: "pm_card_visa",
		Description:     "slot A1",
		Metadata:        map[string]string{"userId": "5", "slotId": "1"},
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestChargeSucceeded(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1500", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "5", r.PostForm.Get("metadata[userId]"))
		writeJSON(w, http.StatusOK, `{"id":"pi_1","object":"payment_intent","status":"succeeded","amount":1500}`)
	})

	charge, err := gw.Charge(context.Background(), chargeRequest())
	require.NoError(t, err)
	assert.Equal(t, "pi_1", charge.ID)
	assert.Equal(t, int64(1500), charge.AmountCents)
}

func TestChargeFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantFailed bool
	}{
		{
			name:       "card declined",
			status:     http.StatusPaymentRequired,
			body:       `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			wantFailed: true,
		},
		{
			name:       "invalid request",
			status:     http.StatusBadRequest,
			body:       `{"error":{"type":"invalid_request_error","message":"No such PaymentMethod: 'pm_x'"}}`,
			wantFailed: true,
		},
		{
			name:       "requires action",
			status:     http.StatusOK,
			body:       `{"id":"pi_2","object":"payment_intent","status":"requires_action","amount":1500}`,
			wantFailed: true,
		},
		{
			name:       "processor outage",
			status:     http.StatusInternalServerError,
			body:       `{"error":{"type":"api_error","message":"Something went wrong."}}`,
			wantFailed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			charge, err := gw.Charge(context.Background(), chargeRequest())
			require.Error(t, err)
			assert.Nil(t, charge)
			assert.Equal(t, tt.wantFailed, errors.Is(err, ErrPaymentFailed))
		})
	}
}

func TestRefundSendsStableIdempotencyKey(t *testing.T) {
	var keys []string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
		assert.Equal(t, "1200", r.PostForm.Get("amount"))
		writeJSON(w, http.StatusOK, `{"id":"re_1","object":"refund","status":"succeeded","amount":1200}`)
	})

	for i := 0; i < 2; i++ {
		refund, err := gw.Refund(context.Background(), "pi_1", 1200)
		require.NoError(t, err)
		assert.Equal(t, "re_1", refund.ID)
		assert.Equal(t, int64(1200), refund.AmountCents)
	}
	assert.Equal(t, []string{"refund-pi_1", "refund-pi_1"}, keys)
}

func TestRefundErrorStaysOpaque(t *testing.T) {
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"error":{"type":"api_error","message":"Something went wrong."}}`)
	})

	_, err := gw.Refund(context.Background(), "pi_1", 1200)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentFailed)
	assert.Contains(t, err.Error(), "stripe refund")
}
