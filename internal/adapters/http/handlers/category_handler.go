package handlers

import (
	"medask-forum/internal/adapters/persistence/repositories"
	"medask-forum/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles category master-data endpoints
type CategoryHandler struct {
	categoryRepo repositories.CategoryRepository
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryRepo repositories.CategoryRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepo: categoryRepo}
}

// List returns all question categories
// @Summary List categories
// @Description List all question categories
// @Tags Categories
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /categories [get]
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categoryRepo.List(c.Context())
	if err != nil {
		return response.ServiceUnavailable(c, "Storage temporarily unavailable, please retry")
	}

	return response.Success(c, "Categories retrieved successfully", fiber.Map{
		"categories": categories,
	})
}
