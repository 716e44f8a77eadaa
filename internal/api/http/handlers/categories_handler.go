package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ispdesk/ops-console/internal/api/dto"
	"github.com/ispdesk/ops-console/internal/domain"
	"github.com/ispdesk/ops-console/internal/service"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

// CategoriesHandler manages the category registry endpoints.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categoryService}
}

// ListCategories GET /categories.
func (h *CategoriesHandler) ListCategories(c *fiber.Ctx) error {
	cats, err := h.categories.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(cats))
	for i := range cats {
		items = append(items, categoryResponse(&cats[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /categories.
func (h *CategoriesHandler) CreateCategory(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	cat, err := h.categories.Create(c.UserContext(), actor, service.CategoryInput{
		Code:        req.Code,
		Name:        req.Name,
		SLAHours:    req.SLAHours,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(cat)})
}

// UpdateCategory PATCH /categories/:id.
func (h *CategoriesHandler) UpdateCategory(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Code != nil {
		current, err := h.categories.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return err
		}
		code, parseErr := domain.ParseCategoryCode(*req.Code)
		if parseErr != nil || code != current.Code {
			return apperrors.NewValidationError("category code is immutable", map[string]any{"field": "code"})
		}
	}
	cat, err := h.categories.Update(c.UserContext(), actor, c.Params("id"), service.CategoryPatch{
		Name:        req.Name,
		SLAHours:    req.SLAHours,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(cat)})
}

// DeleteCategory DELETE /categories/:id.
func (h *CategoriesHandler) DeleteCategory(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SeedCategories POST /categories/seed.
func (h *CategoriesHandler) SeedCategories(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	inserted, err := h.categories.SeedDefaults(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SeedCategoriesResponse{Inserted: inserted}})
}

func categoryResponse(cat *domain.TicketCategoryConfig) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          cat.ID,
		Code:        cat.Code,
		Name:        cat.Name,
		SLAHours:    cat.SLAHours,
		Description: cat.Description,
		CreatedAt:   cat.CreatedAt,
		UpdatedAt:   cat.UpdatedAt,
	}
}
