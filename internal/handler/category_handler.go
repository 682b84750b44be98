package handler

import (
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	Icon     string  `json:"icon"`
	Color    string  `json:"color"`
	Type     string  `json:"type"`
	ParentID *string `json:"parentId,omitempty"`
}

// UpdateCategoryRequest represents the update category request body
type UpdateCategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// GetCategories handles GET /api/v1/categories
// With ?tree=true the categories are nested under their parents; ?type
// filters the tree by category type.
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()

	if c.QueryParam("tree") == "true" {
		categoryType := domain.CategoryType(c.QueryParam("type"))
		if categoryType != "" && !categoryType.IsValid() {
			return NewServiceError(c, domain.ErrInvalidCategoryType, "")
		}
		tree, err := h.categoryService.GetCategoryTree(ctx, categoryType)
		if err != nil {
			return NewServiceError(c, err, "Failed to get categories")
		}
		return c.JSON(http.StatusOK, tree)
	}

	categories, err := h.categoryService.GetCategories(ctx)
	if err != nil {
		return NewServiceError(c, err, "Failed to get categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(c.Request().Context(), service.CreateCategoryInput{
		Name:     req.Name,
		Icon:     req.Icon,
		Color:    req.Color,
		Type:     domain.CategoryType(req.Type),
		ParentID: req.ParentID,
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to create category")
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.UpdateCategory(c.Request().Context(), c.Param("id"), service.UpdateCategoryInput{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
// Child categories are removed with their parent.
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	if err := h.categoryService.DeleteCategory(c.Request().Context(), c.Param("id")); err != nil {
		return NewServiceError(c, err, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUsage handles GET /api/v1/categories/:id/usage
func (h *CategoryHandler) GetUsage(c echo.Context) error {
	usage, err := h.categoryService.Usage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return NewServiceError(c, err, "Failed to check category usage")
	}
	return c.JSON(http.StatusOK, usage)
}
