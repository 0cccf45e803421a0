package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

type AvailabilityHandler struct {
	service availabilityApplicationService
}

type availabilityApplicationService interface {
	IsAvailable(ctx context.Context, developerID int64, date time.Time, startTime time.Time, durationMinutes int) (bool, error)
	GetUnavailableSlots(ctx context.Context, developerID int64, date time.Time) ([]string, error)
	SetUnavailableSlots(ctx context.Context, developerID int64, date time.Time, tokens []string) (*models.DeveloperUnavailability, error)
	SetWeeklySlots(ctx context.Context, developerID int64, weekday int, tokens []string) error
}

func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// CheckAvailability answers whether a developer can be booked for an
// interval; callers poll it before submitting a booking request.
func (h *AvailabilityHandler) CheckAvailability(c *fiber.Ctx) error {
	developerID, err := strconv.ParseInt(c.Query("developer_id"), 10, 64)
	if err != nil || developerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "developer_id is required"})
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(c.Query("start_time")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time must be a valid RFC3339 timestamp"})
	}

	duration, err := strconv.Atoi(c.Query("duration_minutes"))
	if err != nil || duration <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
	}

	available, err := h.service.IsAvailable(
		c.Context(),
		developerID,
		startTime.UTC().Truncate(24*time.Hour),
		startTime,
		duration,
	)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"available": available})
}

func (h *AvailabilityHandler) GetUnavailableSlots(c *fiber.Ctx) error {
	developerID, err := strconv.ParseInt(c.Query("developer_id"), 10, 64)
	if err != nil || developerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "developer_id is required"})
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(c.Query("date")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	slots, err := h.service.GetUnavailableSlots(c.Context(), developerID, date)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

type setSlotsRequest struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

func (h *AvailabilityHandler) SetUnavailableSlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "developer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	developerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req setSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be YYYY-MM-DD"})
	}

	record, err := h.service.SetUnavailableSlots(c.Context(), developerID, date, req.Slots)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.JSON(fiber.Map{"unavailability": record})
}

type setWeeklySlotsRequest struct {
	Weekday int      `json:"weekday"`
	Slots   []string `json:"slots"`
}

func (h *AvailabilityHandler) SetWeeklySlots(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || role != "developer" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	developerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req setWeeklySlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := h.service.SetWeeklySlots(c.Context(), developerID, req.Weekday, req.Slots); err != nil {
		return mapAvailabilityError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapAvailabilityError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid slot input"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A live session already occupies that slot"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process availability request"})
	}
}
