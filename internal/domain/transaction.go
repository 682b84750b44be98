package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single signed money movement. A positive amount is income,
// a negative amount is an expense.
type Transaction struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	CategoryID    string          `json:"category"`
	CategoryIcon  string          `json:"categoryIcon,omitempty"`
	CategoryColor string          `json:"categoryColor,omitempty"`
	Note          *string         `json:"note,omitempty"`
	AttachmentURL *string         `json:"attachmentUrl,omitempty"`
}

// EntityID implements Entity
func (t Transaction) EntityID() string {
	return t.ID
}

// IsExpense reports whether the transaction moves money out
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction moves money in
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// InMonth reports whether the transaction date falls in the zero-based month
// of the given year.
func (t Transaction) InMonth(month, year int) bool {
	return int(t.Date.Month())-1 == month && t.Date.Year() == year
}

// MonthOf returns the zero-based month and year of a date
func MonthOf(date time.Time) (month, year int) {
	return int(date.Month()) - 1, date.Year()
}
