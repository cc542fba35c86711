package handler

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/pkg/payment"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func webhookApp(t *testing.T) *fiber.App {
	t.Helper()

	stripeService := payment.NewStripeService("sk_test_dummy", "whsec_test_dummy")
	h := NewPaymentHandler(nil, stripeService, nil, zap.NewNop())

	app := fiber.New()
	app.Post("/api/webhooks/stripe", h.HandleStripeWebhook)
	return app
}

func TestHandleStripeWebhook_RejectsBadSignature(t *testing.T) {
	app := webhookApp(t)

	body := []byte(`{"type":"payment_intent.succeeded"}`)
	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=123,v1=garbage")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStripeWebhook_RejectsMissingSignature(t *testing.T) {
	app := webhookApp(t)

	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
