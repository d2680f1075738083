package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-workflow/internal/refdata"
)

// RefdataHandler serves the cached reference-data lists.
type RefdataHandler struct {
	cache *refdata.Cache
}

// NewRefdataHandler constructs handler.
func NewRefdataHandler(cache *refdata.Cache) *RefdataHandler {
	return &RefdataHandler{cache: cache}
}

// Categories GET /categories.
func (h *RefdataHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.cache.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categories})
}

// Users GET /users.
func (h *RefdataHandler) Users(c *fiber.Ctx) error {
	people, err := h.cache.People(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": people})
}

// Actions GET /actions.
func (h *RefdataHandler) Actions(c *fiber.Ctx) error {
	actions, err := h.cache.Actions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": actions})
}
