package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/repository/kv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Initialize seeds example categories, transactions and default settings on
// first run. The initialization sentinel makes later calls no-ops.
func (a *Adapter) Initialize(ctx context.Context) (seeded bool, err error) {
	keys := []string{
		domain.KeyInitialized,
		domain.KeyCategories,
		domain.KeyTransactions,
		domain.KeyMonthlyData,
		domain.KeyUserSettings,
	}

	err = a.Update(ctx, keys, func(tx *Tx) error {
		_, err := a.store.Get(ctx, domain.KeyInitialized)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrKeyNotFound) {
			return fmt.Errorf("read %s: %w", domain.KeyInitialized, err)
		}

		transactions := SeedTransactions()
		if err := Write(tx, domain.KeyCategories, SeedCategories()); err != nil {
			return err
		}
		if err := Write(tx, domain.KeyTransactions, transactions); err != nil {
			return err
		}
		if err := Write(tx, domain.KeyMonthlyData, SummarizeMonths(transactions)); err != nil {
			return err
		}
		if err := WriteObject(tx, domain.KeyUserSettings, domain.DefaultUserSettings()); err != nil {
			return err
		}
		if err := WriteObject(tx, domain.KeyInitialized, true); err != nil {
			return err
		}

		seeded = true
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize storage")
		return false, err
	}

	if seeded {
		log.Info().Msg("Storage seeded with example data")
	}
	return seeded, nil
}

// SummarizeMonths computes MonthlyData for a transaction log. Buckets are
// ordered by first appearance in the log.
func SummarizeMonths(transactions []domain.Transaction) []domain.MonthlyData {
	months := make([]domain.MonthlyData, 0)
	for _, t := range transactions {
		months = ApplyToMonths(months, t, 1)
	}
	return months
}

// ApplyToMonths adds (sign 1) or removes (sign -1) a transaction's amount
// from its month bucket. Adding creates a missing bucket; removing from a
// missing bucket does nothing. Totals never drop below zero.
func ApplyToMonths(months []domain.MonthlyData, t domain.Transaction, sign int) []domain.MonthlyData {
	month, year := domain.MonthOf(t.Date)

	idx := -1
	for i := range months {
		if months[i].Month == month && months[i].Year == year {
			idx = i
			break
		}
	}

	if idx == -1 {
		if sign < 0 {
			return months
		}
		months = append(months, domain.MonthlyData{
			Month:    month,
			Year:     year,
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		})
		idx = len(months) - 1
	}

	delta := t.Amount.Abs().Mul(decimal.NewFromInt(int64(sign)))
	if t.Amount.IsPositive() {
		months[idx].Income = decimal.Max(months[idx].Income.Add(delta), decimal.Zero)
	} else {
		months[idx].Expenses = decimal.Max(months[idx].Expenses.Add(delta), decimal.Zero)
	}
	return months
}

// SeedCategories returns the categories written on first run
func SeedCategories() []domain.Category {
	return []domain.Category{
		{ID: "food", Name: "餐饮", Icon: "🍔", Color: "#FF6B6B", Type: domain.CategoryTypeExpense},
		{ID: "transport", Name: "交通", Icon: "🚗", Color: "#4ECDC4", Type: domain.CategoryTypeExpense},
		{ID: "shopping", Name: "购物", Icon: "🛍️", Color: "#FFD166", Type: domain.CategoryTypeExpense},
		{ID: "housing", Name: "住房", Icon: "🏠", Color: "#6C8EB6", Type: domain.CategoryTypeExpense},
		{ID: "entertainment", Name: "娱乐", Icon: "🎮", Color: "#C06C84", Type: domain.CategoryTypeExpense},
		{ID: "medical", Name: "医疗", Icon: "💊", Color: "#F78FB3", Type: domain.CategoryTypeExpense},
		{ID: "education", Name: "教育", Icon: "📚", Color: "#3F72AF", Type: domain.CategoryTypeExpense},
		{ID: "other_expense", Name: "其他", Icon: "📝", Color: "#7F7F7F", Type: domain.CategoryTypeExpense},
		{ID: "salary", Name: "工资", Icon: "💰", Color: "#4CAF50", Type: domain.CategoryTypeIncome},
		{ID: "bonus", Name: "奖金", Icon: "🎁", Color: "#8BC34A", Type: domain.CategoryTypeIncome},
		{ID: "investment", Name: "投资", Icon: "📈", Color: "#009688", Type: domain.CategoryTypeIncome},
		{ID: "other_income", Name: "其他", Icon: "📝", Color: "#7F7F7F", Type: domain.CategoryTypeIncome},
	}
}

// SeedTransactions returns the example transactions written on first run
func SeedTransactions() []domain.Transaction {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2025, time.May, day, hour, minute, 0, 0, time.UTC)
	}
	note := func(s string) *string { return &s }

	return []domain.Transaction{
		{ID: "t1", Title: "午餐", Amount: decimal.NewFromInt(-45), Date: at(14, 12, 30), CategoryID: "food", CategoryIcon: "🍔", CategoryColor: "#FF6B6B", Note: note("公司附近的餐厅")},
		{ID: "t2", Title: "打车", Amount: decimal.NewFromInt(-35), Date: at(14, 9, 15), CategoryID: "transport", CategoryIcon: "🚗", CategoryColor: "#4ECDC4", Note: note("去公司")},
		{ID: "t3", Title: "超市购物", Amount: decimal.NewFromInt(-210), Date: at(13, 18, 45), CategoryID: "shopping", CategoryIcon: "🛍️", CategoryColor: "#FFD166", Note: note("周末采购")},
		{ID: "t4", Title: "电影票", Amount: decimal.NewFromInt(-80), Date: at(12, 20, 0), CategoryID: "entertainment", CategoryIcon: "🎮", CategoryColor: "#C06C84", Note: note("周末看电影")},
		{ID: "t5", Title: "工资", Amount: decimal.NewFromInt(12000), Date: at(10, 9, 0), CategoryID: "salary", CategoryIcon: "💰", CategoryColor: "#4CAF50", Note: note("5月工资")},
	}
}
