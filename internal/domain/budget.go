package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// IsValid reports whether the period is one of the known budget periods
func (p BudgetPeriod) IsValid() bool {
	return p == BudgetPeriodMonthly || p == BudgetPeriodYearly
}

// Budget is a spending cap for one category over a month or a year.
// Spent is a running total maintained as expenses are recorded.
type Budget struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Period     BudgetPeriod    `json:"period"`
	Spent      decimal.Decimal `json:"spent"`
	Year       int             `json:"year"`
	Month      *int            `json:"month,omitempty"`
}

// EntityID implements Entity
func (b Budget) EntityID() string {
	return b.ID
}

// IsActiveOn reports whether the budget period covers the given date
func (b Budget) IsActiveOn(date time.Time) bool {
	month, year := MonthOf(date)
	if b.Year != year {
		return false
	}
	if b.Period == BudgetPeriodYearly {
		return true
	}
	return b.Month != nil && *b.Month == month
}

// Covers reports whether an expense transaction counts against this budget
func (b Budget) Covers(t Transaction) bool {
	return t.IsExpense() && b.CategoryID == t.CategoryID && b.IsActiveOn(t.Date)
}

// BudgetProgress is a budget with derived progress values
type BudgetProgress struct {
	Budget
	CategoryName string          `json:"categoryName"`
	Remaining    decimal.Decimal `json:"remaining"`
	Ratio        decimal.Decimal `json:"ratio"`
	Exceeded     bool            `json:"exceeded"`
}

// NewBudgetProgress derives progress values for a budget
func NewBudgetProgress(b Budget, categoryName string) BudgetProgress {
	ratio := decimal.Zero
	if b.Amount.IsPositive() {
		ratio = b.Spent.Div(b.Amount).Round(4)
	}
	return BudgetProgress{
		Budget:       b,
		CategoryName: categoryName,
		Remaining:    b.Amount.Sub(b.Spent),
		Ratio:        ratio,
		Exceeded:     b.Spent.GreaterThan(b.Amount),
	}
}
