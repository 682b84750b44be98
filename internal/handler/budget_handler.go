package handler

import (
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BudgetHandler handles budget HTTP requests
type BudgetHandler struct {
	budgetService *service.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService *service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the create budget request body.
// Month is 1-12 and required for monthly budgets.
type CreateBudgetRequest struct {
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	Year       int    `json:"year"`
	Month      *int   `json:"month,omitempty"`
}

// UpdateBudgetRequest represents the update budget request body
type UpdateBudgetRequest struct {
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
}

// BudgetResponse represents a budget in API responses. Month is 1-12.
type BudgetResponse struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Amount     string `json:"amount"`
	Period     string `json:"period"`
	Spent      string `json:"spent"`
	Year       int    `json:"year"`
	Month      *int   `json:"month,omitempty"`
}

// BudgetProgressResponse represents a budget with its progress
type BudgetProgressResponse struct {
	BudgetResponse
	CategoryName string `json:"categoryName"`
	Remaining    string `json:"remaining"`
	Ratio        string `json:"ratio"`
	Exceeded     bool   `json:"exceeded"`
}

func parseAmount(c echo.Context, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}
	return amount, nil
}

// GetBudgets handles GET /api/v1/budgets
func (h *BudgetHandler) GetBudgets(c echo.Context) error {
	budgets, err := h.budgetService.GetBudgets(c.Request().Context())
	if err != nil {
		return NewServiceError(c, err, "Failed to get budgets")
	}

	responses := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		responses[i] = toBudgetResponse(&budgets[i])
	}
	return c.JSON(http.StatusOK, responses)
}

// GetProgress handles GET /api/v1/budgets/progress
func (h *BudgetHandler) GetProgress(c echo.Context) error {
	progress, err := h.budgetService.Progress(c.Request().Context())
	if err != nil {
		return NewServiceError(c, err, "Failed to get budget progress")
	}

	responses := make([]BudgetProgressResponse, len(progress))
	for i, p := range progress {
		responses[i] = BudgetProgressResponse{
			BudgetResponse: toBudgetResponse(&p.Budget),
			CategoryName:   p.CategoryName,
			Remaining:      p.Remaining.StringFixed(2),
			Ratio:          p.Ratio.String(),
			Exceeded:       p.Exceeded,
		}
	}
	return c.JSON(http.StatusOK, responses)
}

// CreateBudget handles POST /api/v1/budgets
func (h *BudgetHandler) CreateBudget(c echo.Context) error {
	var req CreateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := parseAmount(c, req.Amount)
	if err != nil {
		return err
	}

	input := service.CreateBudgetInput{
		CategoryID: req.CategoryID,
		Amount:     amount,
		Period:     domain.BudgetPeriod(req.Period),
		Year:       req.Year,
	}
	if req.Month != nil {
		month := *req.Month - 1
		input.Month = &month
	}

	budget, err := h.budgetService.CreateBudget(c.Request().Context(), input)
	if err != nil {
		return NewServiceError(c, err, "Failed to create budget")
	}
	return c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// UpdateBudget handles PUT /api/v1/budgets/:id
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	var req UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := parseAmount(c, req.Amount)
	if err != nil {
		return err
	}

	budget, err := h.budgetService.UpdateBudget(c.Request().Context(), c.Param("id"), service.UpdateBudgetInput{
		CategoryID: req.CategoryID,
		Amount:     amount,
	})
	if err != nil {
		return NewServiceError(c, err, "Failed to update budget")
	}
	return c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget handles DELETE /api/v1/budgets/:id
func (h *BudgetHandler) DeleteBudget(c echo.Context) error {
	if err := h.budgetService.DeleteBudget(c.Request().Context(), c.Param("id")); err != nil {
		return NewServiceError(c, err, "Failed to delete budget")
	}
	return c.NoContent(http.StatusNoContent)
}

func toBudgetResponse(b *domain.Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Amount:     b.Amount.StringFixed(2),
		Period:     string(b.Period),
		Spent:      b.Spent.StringFixed(2),
		Year:       b.Year,
	}
	if b.Month != nil {
		month := util.CalendarMonth(*b.Month)
		resp.Month = &month
	}
	return resp
}
