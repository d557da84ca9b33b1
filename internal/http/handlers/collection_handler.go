package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "curio/internal/log"
	"curio/internal/services"
	"curio/internal/validate"
)

type CollectionHandler struct {
	Coll *services.CollectionService
}

func (h *CollectionHandler) View(c *fiber.Ctx) error {
	cv, err := h.Coll.View(userID(c))
	if err != nil {
		return fail(c, "collection.view", err)
	}
	return c.JSON(cv)
}

func (h *CollectionHandler) Add(c *fiber.Ctx) error {
	var body struct {
		ItemID string `json:"itemId"`
		Qty    int    `json:"qty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	itemID, ok := validate.ID(body.ItemID)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "itemId"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid item id"})
	}
	if err := h.Coll.Add(userID(c), itemID, body.Qty); err != nil {
		return fail(c, "collection.add", err)
	}
	applog.Info(c, "collection.add", map[string]any{"item_id": itemID, "qty": body.Qty})
	return h.View(c)
}

func (h *CollectionHandler) UpdateEntry(c *fiber.Ctx) error {
	entryID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}
	var body struct {
		Qty int `json:"qty"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Coll.Update(userID(c), entryID, body.Qty); err != nil {
		return fail(c, "collection.update", err)
	}
	return h.View(c)
}

func (h *CollectionHandler) RemoveEntry(c *fiber.Ctx) error {
	entryID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}
	if err := h.Coll.Remove(userID(c), entryID); err != nil {
		return fail(c, "collection.remove", err)
	}
	return h.View(c)
}

func (h *CollectionHandler) Clear(c *fiber.Ctx) error {
	if err := h.Coll.Clear(userID(c)); err != nil {
		return fail(c, "collection.clear", err)
	}
	return h.View(c)
}
