package handlers

import (
	"github.com/gofiber/fiber/v2"

	"curio/internal/domain"
	applog "curio/internal/log"
	"curio/internal/repos"
	"curio/internal/services"
	"curio/internal/validate"
)

// StaffHandler carries the pre-authorized staff surface: activity tracking
// and catalog maintenance. Role checks happen in the RequireStaff middleware.
type StaffHandler struct {
	Acts    *repos.ActivityRepo
	Status  *services.StatusService
	Catalog *services.CatalogService
}

func (h *StaffHandler) Activities(c *fiber.Ctx) error {
	acts, err := h.Acts.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return fail(c, "staff.activities", err)
	}
	return c.JSON(fiber.Map{"activities": acts})
}

func (h *StaffHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	act, err := h.Status.SetStatus(id, domain.Status(body.Status))
	if err != nil {
		return fail(c, "staff.status", err)
	}
	applog.Audit(c, "staff.status", map[string]any{"activity_id": id, "status": body.Status})
	return c.JSON(fiber.Map{"activity": act})
}

func (h *StaffHandler) SetFeatured(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	var body struct {
		Featured bool `json:"featured"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Catalog.SetFeatured(id, body.Featured); err != nil {
		return fail(c, "staff.featured", err)
	}
	applog.Audit(c, "staff.featured", map[string]any{"item_id": id, "featured": body.Featured})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StaffHandler) SetCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	var body struct {
		CategoryID string `json:"categoryId"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	catID, ok := validate.ID(body.CategoryID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}
	if err := h.Catalog.SetCategory(id, catID); err != nil {
		return fail(c, "staff.category", err)
	}
	applog.Audit(c, "staff.category", map[string]any{"item_id": id, "category_id": catID})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StaffHandler) SetAvailability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	var body struct {
		Available bool `json:"available"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Catalog.SetAvailability(id, body.Available); err != nil {
		return fail(c, "staff.availability", err)
	}
	applog.Audit(c, "staff.availability", map[string]any{"item_id": id, "available": body.Available})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *StaffHandler) Restock(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	var body struct {
		Qty int `json:"qty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Catalog.Restock(id, body.Qty); err != nil {
		return fail(c, "staff.restock", err)
	}
	applog.Audit(c, "staff.restock", map[string]any{"item_id": id, "qty": body.Qty})
	return c.SendStatus(fiber.StatusNoContent)
}
