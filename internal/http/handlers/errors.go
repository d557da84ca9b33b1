package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"curio/internal/domain"
	applog "curio/internal/log"
)

// fail maps the closed domain error set onto HTTP statuses so clients can
// tell "fix your input" from "retry later" from "terminal".
func fail(c *fiber.Ctx, action string, err error) error {
	if ie, ok := domain.AsInsufficient(err); ok {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "insufficient availability",
			"itemIds": ie.ItemIDs,
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid quantity"})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, domain.ErrEmptyCollection):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "collection is empty"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid status transition"})
	case errors.Is(err, domain.ErrConcurrentModification):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "busy, retry shortly", "retryable": true})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
