package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
)

const (
	WebhookEventCheckoutCompleted = "checkout.completed"
	WebhookEventCheckoutFailed    = "checkout.failed"
)

// signatureTolerance bounds how stale a webhook timestamp may be before the
// signature is rejected outright.
const signatureTolerance = 5 * time.Minute

type WebhookEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Data WebhookEventData `json:"data"`
}

type WebhookEventData struct {
	SessionID int64  `json:"session_id"`
	Reference string `json:"reference"`
	Amount    string `json:"amount"`
}

// PaymentGateway adapts the external payment provider: it builds checkout
// redirects and verifies the provider's webhook signatures. The webhook
// payload format belongs to the provider and is only parsed here.
type PaymentGateway struct {
	secret          []byte
	checkoutBaseURL string
	now             func() time.Time
}

func NewPaymentGateway(secret string, checkoutBaseURL string) *PaymentGateway {
	return &PaymentGateway{
		secret:          []byte(secret),
		checkoutBaseURL: strings.TrimRight(checkoutBaseURL, "/"),
		now:             time.Now,
	}
}

func (g *PaymentGateway) CreateCheckoutSession(session *models.Session) (string, error) {
	if session == nil {
		return "", fmt.Errorf("session is required")
	}
	reference := uuid.NewString()
	return fmt.Sprintf(
		"%s/checkout/%s?session=%d&amount=%s",
		g.checkoutBaseURL,
		reference,
		session.ID,
		session.Price.StringFixed(2),
	), nil
}

// ValidateWebhookSignature checks a `t=<unix>,v1=<hex>` header against
// HMAC-SHA256 of "<t>.<payload>" with the shared secret.
func (g *PaymentGateway) ValidateWebhookSignature(payload []byte, header string) error {
	var timestampPart, signaturePart string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestampPart = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			signaturePart = strings.TrimPrefix(part, "v1=")
		}
	}
	if timestampPart == "" || signaturePart == "" {
		return fmt.Errorf("malformed signature header")
	}

	timestamp, err := strconv.ParseInt(timestampPart, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	skew := g.now().Unix() - timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(signatureTolerance.Seconds()) {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	provided, err := hex.DecodeString(signaturePart)
	if err != nil {
		return fmt.Errorf("malformed signature")
	}
	if !hmac.Equal(provided, g.computeSignature(payload, timestamp)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// SignWebhookPayload produces the header the gateway would send for a
// payload; the counterpart to ValidateWebhookSignature.
func (g *PaymentGateway) SignWebhookPayload(payload []byte, at time.Time) string {
	timestamp := at.Unix()
	return fmt.Sprintf(
		"t=%d,v1=%s",
		timestamp,
		hex.EncodeToString(g.computeSignature(payload, timestamp)),
	)
}

func (g *PaymentGateway) computeSignature(payload []byte, timestamp int64) []byte {
	mac := hmac.New(sha256.New, g.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return mac.Sum(nil)
}

func (g *PaymentGateway) ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("webhook event type is required")
	}
	if event.Data.SessionID <= 0 {
		return nil, fmt.Errorf("webhook event session id is required")
	}
	return &event, nil
}
