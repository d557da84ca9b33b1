package handlers

import (
	"github.com/gofiber/fiber/v2"

	"curio/internal/services"
	"curio/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

func (h *CatalogHandler) Featured(c *fiber.Ctx) error {
	items, err := h.Catalog.Featured()
	if err != nil {
		return fail(c, "catalog.featured", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.Categories()
	if err != nil {
		return fail(c, "catalog.categories", err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CatalogHandler) ByCategory(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category id"})
	}
	items, err := h.Catalog.ByCategory(id)
	if err != nil {
		return fail(c, "catalog.category", err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *CatalogHandler) Item(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	it, err := h.Catalog.Item(id)
	if err != nil {
		return fail(c, "catalog.item", err)
	}
	tags, err := it.Tags()
	if err != nil {
		return fail(c, "catalog.item", err)
	}
	return c.JSON(fiber.Map{"item": it, "tags": tags})
}
