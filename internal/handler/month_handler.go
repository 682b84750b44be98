package handler

import (
	"net/http"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/service"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// MonthHandler serves the per-month views of the ledger
type MonthHandler struct {
	ledger *service.LedgerService
}

// NewMonthHandler creates a new MonthHandler
func NewMonthHandler(ledger *service.LedgerService) *MonthHandler {
	return &MonthHandler{ledger: ledger}
}

// MonthOverviewResponse represents a month summary in API responses.
// Month is 1-12.
type MonthOverviewResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

// CategoryDataResponse represents one slice of the expense breakdown
type CategoryDataResponse struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Color      string `json:"color"`
	Icon       string `json:"icon,omitempty"`
}

// TrendDataResponse represents one day of the expense trend
type TrendDataResponse struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
}

// GetOverview handles GET /api/v1/months/:year/:month
func (h *MonthHandler) GetOverview(c echo.Context) error {
	year, month, err := util.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		return NewServiceError(c, err, "Invalid year or month")
	}

	data, err := h.ledger.MonthlyOverview(c.Request().Context(), month, year)
	if err != nil {
		return NewServiceError(c, err, "Failed to get monthly overview")
	}
	if data == nil {
		return NewNotFoundError(c, "No data for this month")
	}

	return c.JSON(http.StatusOK, MonthOverviewResponse{
		Year:     data.Year,
		Month:    util.CalendarMonth(data.Month),
		Income:   data.Income.StringFixed(2),
		Expenses: data.Expenses.StringFixed(2),
		Balance:  data.Balance().StringFixed(2),
	})
}

// GetCategories handles GET /api/v1/months/:year/:month/categories
func (h *MonthHandler) GetCategories(c echo.Context) error {
	year, month, err := util.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		return NewServiceError(c, err, "Invalid year or month")
	}

	breakdown, err := h.ledger.CategoryBreakdown(c.Request().Context(), month, year)
	if err != nil {
		return NewServiceError(c, err, "Failed to get category breakdown")
	}

	responses := make([]CategoryDataResponse, len(breakdown))
	for i, d := range breakdown {
		responses[i] = CategoryDataResponse{
			CategoryID: d.CategoryID,
			Name:       d.Name,
			Amount:     d.Amount.StringFixed(2),
			Color:      d.Color,
			Icon:       d.Icon,
		}
	}
	return c.JSON(http.StatusOK, responses)
}

// GetTrend handles GET /api/v1/months/:year/:month/trend
func (h *MonthHandler) GetTrend(c echo.Context) error {
	year, month, err := util.ParseYearMonth(c.Param("year"), c.Param("month"))
	if err != nil {
		return NewServiceError(c, err, "Invalid year or month")
	}

	trend, err := h.ledger.DailyTrend(c.Request().Context(), month, year)
	if err != nil {
		return NewServiceError(c, err, "Failed to get expense trend")
	}

	responses := make([]TrendDataResponse, len(trend))
	for i, d := range trend {
		responses[i] = TrendDataResponse{Date: d.Date, Amount: d.Amount.StringFixed(2)}
	}
	return c.JSON(http.StatusOK, responses)
}
