package domain

import "github.com/shopspring/decimal"

// MonthlyData caches income and expense totals for one calendar month.
// Month is zero-based (0 = January).
type MonthlyData struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Balance returns income minus expenses
func (m MonthlyData) Balance() decimal.Decimal {
	return m.Income.Sub(m.Expenses)
}

// MonthlyOverview is the view model returned for a month summary
type MonthlyOverview struct {
	MonthlyData
	Balance decimal.Decimal `json:"balance"`
}

// CategoryData is one slice of the monthly expense pie chart
type CategoryData struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Color      string          `json:"color"`
	Icon       string          `json:"icon,omitempty"`
}

// TrendData is one bar of the daily expense chart
type TrendData struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}
