package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nabilpos/internal/pos"
	"nabilpos/internal/validate"
)

type CatalogHandler struct {
	Catalog *pos.Catalog
}

// Grid pages through the product browse panel, filtered by search term and
// category against the cached snapshot.
func (h *CatalogHandler) Grid(c *fiber.Ctx) error {
	q := c.Query("q")
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid search"})
		}
	}
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 12)
	return c.JSON(h.Catalog.Search(q, c.Query("category"), page, perPage))
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": h.Catalog.Categories()})
}
