package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "curio/internal/log"
	"curio/internal/repos"
	"curio/internal/services"
	"curio/internal/validate"
)

type ActivityHandler struct {
	Finalize *services.FinalizeService
	Acts     *repos.ActivityRepo
}

// Create finalizes the caller's collection into an activity. An optional
// Idempotency-Key header makes retries after ambiguous failures safe.
func (h *ActivityHandler) Create(c *fiber.Ctx) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Method   string `json:"method"`
		Location string `json:"location"`
		Notes    string `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	name, ok := validate.Name(body.Name)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name must be 1-40 characters"})
	}
	email, ok := validate.Email(body.Email)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid email"})
	}
	method, ok := validate.Method(body.Method)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "method must be PICKUP or DELIVERY"})
	}
	key, ok := validate.IdempotencyKey(c.Get("Idempotency-Key"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid idempotency key"})
	}

	act, items, err := h.Finalize.Finalize(userID(c), services.FinalizeInput{
		Contact:        services.Contact{Name: name, Email: email},
		Method:         method,
		Location:       body.Location,
		Notes:          validate.Notes(body.Notes),
		IdempotencyKey: key,
	})
	if err != nil {
		return fail(c, "activity.finalize", err)
	}
	applog.Audit(c, "activity.finalize", map[string]any{
		"activity_id": act.ID,
		"number":      act.Number,
		"total":       act.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"activity": act, "items": items})
}

func (h *ActivityHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
	}
	act, err := h.Acts.Get(id)
	if err != nil {
		return fail(c, "activity.get", err)
	}
	// Owners only; staff use the staff listing.
	if act.UserID != userID(c) {
		applog.Security(c, "access.denied.activity", map[string]any{"activity_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	items, err := h.Acts.Items(act.ID)
	if err != nil {
		return fail(c, "activity.get", err)
	}
	return c.JSON(fiber.Map{"activity": act, "items": items})
}

func (h *ActivityHandler) History(c *fiber.Ctx) error {
	acts, err := h.Acts.ListByUser(userID(c))
	if err != nil {
		return fail(c, "activity.history", err)
	}
	return c.JSON(fiber.Map{"activities": acts})
}
