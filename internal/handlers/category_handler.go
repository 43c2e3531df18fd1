package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saisidhanth1551/CommUnity-care/internal/models"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// GetCategories returns the closed set of service categories the client
// builds its pickers from.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(models.ServiceCategories)
}
