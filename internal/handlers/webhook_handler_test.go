package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

type stubWebhookProcessor struct {
	err           error
	lastPayload   []byte
	lastSignature string
}

func (s *stubWebhookProcessor) Process(_ context.Context, payload []byte, signatureHeader string) error {
	s.lastPayload = payload
	s.lastSignature = signatureHeader
	return s.err
}

func newWebhookTestApp(service *stubWebhookProcessor) *fiber.App {
	handler := &WebhookHandler{service: service}
	app := fiber.New()
	app.Post("/api/webhooks/payment", handler.HandlePaymentWebhook)
	return app
}

func TestHandlePaymentWebhookAcknowledges(t *testing.T) {
	service := &stubWebhookProcessor{}
	app := newWebhookTestApp(service)

	payload := `{"id":"evt_1","type":"checkout.completed","data":{"session_id":7}}`
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Payment-Signature", "t=1,v1=abc")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(service.lastPayload) != payload {
		t.Fatalf("expected raw payload to reach the service, got %q", service.lastPayload)
	}
	if service.lastSignature != "t=1,v1=abc" {
		t.Fatalf("expected signature header to reach the service, got %q", service.lastSignature)
	}
}

func TestHandlePaymentWebhookRequiresSignatureHeader(t *testing.T) {
	service := &stubWebhookProcessor{}
	app := newWebhookTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(`{}`))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.lastPayload != nil {
		t.Fatal("expected the service to be skipped without a signature")
	}
}

func TestHandlePaymentWebhookMapsErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidSignature, http.StatusBadRequest},
		{services.ErrInvalidInput, http.StatusBadRequest},
		{services.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := newWebhookTestApp(&stubWebhookProcessor{err: tc.err})

		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", strings.NewReader(`{}`))
		req.Header.Set("X-Payment-Signature", "t=1,v1=abc")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, resp.StatusCode)
		}
	}
}
