package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/orderbot-backend/internal/storage"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 500
)

// OrderHandler exposes the finalized-order archive to staff
type OrderHandler struct {
	archive storage.OrderArchive
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(archive storage.OrderArchive) *OrderHandler {
	return &OrderHandler{archive: archive}
}

// ListOrders returns the newest finalized orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultOrderLimit)
	if limit <= 0 || limit > maxOrderLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "limit must be between 1 and 500",
		})
	}

	orders, err := h.archive.ListFinalizedOrders(c.UserContext(), limit)
	if err != nil {
		log.Printf("❌ Failed to list finalized orders: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list orders")
	}

	return c.JSON(fiber.Map{
		"count":  len(orders),
		"orders": orders,
	})
}

// GetOrder returns one finalized order by reference
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.archive.GetFinalizedOrder(c.UserContext(), c.Params("reference"))
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}
	if err != nil {
		log.Printf("❌ Failed to load finalized order: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load order")
	}
	return c.JSON(order)
}
