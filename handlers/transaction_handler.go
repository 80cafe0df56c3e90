package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/aloeflora/mpesa-gateway/store"
)

type TransactionHandler struct {
	Store store.Store
}

func NewTransactionHandler(st store.Store) *TransactionHandler {
	return &TransactionHandler{Store: st}
}

func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c.Query("limit"), c.Query("offset"))
	f := store.ListFilter{
		Status: c.Query("status"),
		Phone:  c.Query("phone"),
		Limit:  limit,
		Offset: offset,
	}

	txs, total, err := h.Store.List(c.Context(), f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transactions: " + err.Error()})
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GetTransaction looks up by checkout request ID, falling back to the
// M-Pesa receipt number.
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id is required"})
	}

	tx, err := h.Store.FindByCheckoutID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		tx, err = h.Store.FindByReceipt(c.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to retrieve transaction: " + err.Error()})
	}
	return c.JSON(tx)
}

func parseLimitOffset(limitStr, offsetStr string) (int, int) {
	limit, offset := 50, 0
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
