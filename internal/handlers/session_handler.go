package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/repository"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	BookSession(ctx context.Context, userID int64, input services.BookSessionInput) (*models.Session, error)
	ListSessions(ctx context.Context, actorID int64, role string, filter repository.SessionListFilter) ([]models.Session, int, error)
	GetSession(ctx context.Context, actorID int64, role string, sessionID int64) (*models.Session, error)
	Approve(ctx context.Context, actorID int64, role string, sessionID int64) (*models.Session, error)
	Reject(ctx context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Session, error)
	Cancel(ctx context.Context, actorID int64, role string, sessionID int64, reason string) (*models.Session, error)
	StartCall(ctx context.Context, actorID int64, role string, sessionID int64) (*models.Session, error)
	EndCall(ctx context.Context, actorID int64, role string, sessionID int64) (*models.Session, error)
	CreateCheckout(ctx context.Context, actorID int64, role string, sessionID int64) (string, error)
}

func NewSessionHandler(service *services.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	DeveloperID     int64   `json:"developer_id"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Topic           *string `json:"topic"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "user" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	userID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be a valid RFC3339 timestamp"})
	}
	if req.DurationMinutes <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}
	if req.Topic != nil && strings.TrimSpace(*req.Topic) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "topic must not be empty"})
	}

	session, err := h.service.BookSession(c.Context(), userID, services.BookSessionInput{
		DeveloperID:     req.DeveloperID,
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.Topic,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != "user" && role != "developer") {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	page, limit := parsePagination(c)
	sessions, total, err := h.service.ListSessions(c.Context(), actorID, role, repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
		Limit:     limit,
		Offset:    (page - 1) * limit,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"sessions":   sessions,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	session, err := h.service.GetSession(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Approve(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	session, err := h.service.Approve(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Reject(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	var req reasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.Reject(c.Context(), actorID, role, sessionID, req.Reason)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	var req reasonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.Cancel(c.Context(), actorID, role, sessionID, req.Reason)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) StartCall(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	session, err := h.service.StartCall(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) EndCall(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	session, err := h.service.EndCall(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CreateCheckout(c *fiber.Ctx) error {
	actorID, role, sessionID, ok := h.parseActionParams(c)
	if !ok {
		return nil
	}

	url, err := h.service.CreateCheckout(c.Context(), actorID, role, sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"checkout_url": url})
}

// parseActionParams resolves the actor and the :id parameter for the
// session action endpoints. When a guard fails it writes the rejection
// response itself and returns ok=false; the caller must stop immediately.
func (h *SessionHandler) parseActionParams(c *fiber.Ctx) (int64, string, int64, bool) {
	role, roleOK := c.Locals("role").(string)
	if !roleOK || (role != "user" && role != "developer") {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		return 0, "", 0, false
	}

	actorID, err := parseActorID(c)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		return 0, "", 0, false
	}

	sessionID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
		return 0, "", 0, false
	}
	return actorID, role, sessionID, true
}

func mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Requested time conflicts with the developer's schedule"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDeveloperNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Developer not found"})
	case errors.Is(err, services.ErrWalletNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Wallet not found"})
	case errors.Is(err, services.ErrPaymentGateway):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment gateway unavailable"})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
