package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/models"
	"github.com/gokul-gkm/DevConnect-Backend-sub001/internal/services"
)

type WalletHandler struct {
	service walletApplicationService
}

type walletApplicationService interface {
	CreateWallet(ctx context.Context, ownerID int64) (*models.Wallet, error)
	GetWallet(ctx context.Context, ownerID int64) (*models.Wallet, error)
	ListTransactions(ctx context.Context, ownerID int64, limit, offset int) ([]models.WalletTransaction, int, error)
}

func NewWalletHandler(service *services.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	wallet, err := h.service.CreateWallet(c.Context(), ownerID)
	if err != nil {
		return mapWalletError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	wallet, err := h.service.GetWallet(c.Context(), ownerID)
	if err != nil {
		return mapWalletError(c, err)
	}
	return c.JSON(fiber.Map{"wallet": wallet})
}

func (h *WalletHandler) ListTransactions(c *fiber.Ctx) error {
	ownerID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	page, limit := parsePagination(c)
	transactions, total, err := h.service.ListTransactions(c.Context(), ownerID, limit, (page-1)*limit)
	if err != nil {
		return mapWalletError(c, err)
	}

	return c.JSON(fiber.Map{
		"transactions": transactions,
		"pagination":   buildPaginationMeta(page, limit, total),
	})
}

func mapWalletError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid wallet input"})
	case errors.Is(err, services.ErrWalletExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Wallet already exists"})
	case errors.Is(err, services.ErrWalletNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Wallet not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process wallet request"})
	}
}
