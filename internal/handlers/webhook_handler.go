package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

// The signature header the payment gateway sets on webhook deliveries.
const webhookSignatureHeader = "X-Payment-Signature"

type WebhookHandler struct {
	service webhookProcessor
}

type webhookProcessor interface {
	Process(ctx context.Context, payload []byte, signatureHeader string) error
}

func NewWebhookHandler(service *services.PaymentWebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandlePaymentWebhook is unauthenticated; the HMAC signature is the only
// credential the gateway presents.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	signature := c.Get(webhookSignatureHeader)
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing signature header"})
	}

	err := h.service.Process(c.Context(), c.Body(), signature)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"received": true})
	case errors.Is(err, services.ErrInvalidSignature):
		// The gateway expects a 4xx so it stops retrying a forged or
		// corrupted delivery.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Malformed payload"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}
}
