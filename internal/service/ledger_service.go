package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is used when RecentTransactions is called without a limit
const DefaultRecentLimit = 5

var ledgerKeys = []string{domain.KeyTransactions, domain.KeyMonthlyData, domain.KeyBudgets}

// LedgerService records transactions and derives the monthly aggregates
// shown on the dashboard and the charts.
type LedgerService struct {
	store     *storage.Adapter
	publisher events.Publisher
	now       func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(store *storage.Adapter, publisher events.Publisher) *LedgerService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// TransactionInput holds the input for recording or replacing a transaction
type TransactionInput struct {
	Title      string
	Amount     decimal.Decimal
	Date       *time.Time
	CategoryID string
	Note       *string
}

// TransactionsForMonth returns the transactions dated in the zero-based
// month of year, in storage order.
func (s *LedgerService) TransactionsForMonth(ctx context.Context, month, year int) ([]domain.Transaction, error) {
	if err := domain.ValidateMonthYear(month, year); err != nil {
		return nil, err
	}

	result := make([]domain.Transaction, 0)
	for _, t := range s.store.Transactions(ctx) {
		if t.InMonth(month, year) {
			result = append(result, t)
		}
	}
	return result, nil
}

// RecentTransactions returns the newest transactions by date
func (s *LedgerService) RecentTransactions(ctx context.Context, limit int) []domain.Transaction {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	transactions := s.store.Transactions(ctx)
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})

	if len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions
}

// CategoryBreakdown sums the month's expenses per category. Slices appear in
// the order their category is first seen; ids with no matching category are
// left out.
func (s *LedgerService) CategoryBreakdown(ctx context.Context, month, year int) ([]domain.CategoryData, error) {
	monthly, err := s.TransactionsForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	totals := make(map[string]decimal.Decimal)
	for _, t := range monthly {
		if !t.IsExpense() {
			continue
		}
		if _, seen := totals[t.CategoryID]; !seen {
			order = append(order, t.CategoryID)
			totals[t.CategoryID] = decimal.Zero
		}
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount.Abs())
	}

	categories := s.store.Categories(ctx)
	result := make([]domain.CategoryData, 0, len(order))
	for _, id := range order {
		c, ok := domain.FindCategory(categories, id)
		if !ok {
			continue
		}
		result = append(result, domain.CategoryData{
			CategoryID: c.ID,
			Name:       c.Name,
			Amount:     totals[id],
			Color:      c.Color,
			Icon:       c.Icon,
		})
	}
	return result, nil
}

// DailyTrend sums the month's expenses per day, ordered by day of month.
// Dates are labeled "M-DD" with a one-based month.
func (s *LedgerService) DailyTrend(ctx context.Context, month, year int) ([]domain.TrendData, error) {
	monthly, err := s.TransactionsForMonth(ctx, month, year)
	if err != nil {
		return nil, err
	}

	totals := make(map[int]decimal.Decimal)
	for _, t := range monthly {
		if !t.IsExpense() {
			continue
		}
		day := t.Date.Day()
		totals[day] = totals[day].Add(t.Amount.Abs())
	}

	days := make([]int, 0, len(totals))
	for day := range totals {
		days = append(days, day)
	}
	sort.Ints(days)

	result := make([]domain.TrendData, 0, len(days))
	for _, day := range days {
		result = append(result, domain.TrendData{
			Date:   fmt.Sprintf("%d-%02d", month+1, day),
			Amount: totals[day],
		})
	}
	return result, nil
}

// MonthlyOverview returns the cached totals for a month, or nil when no
// transaction has been recorded in it.
func (s *LedgerService) MonthlyOverview(ctx context.Context, month, year int) (*domain.MonthlyData, error) {
	if err := domain.ValidateMonthYear(month, year); err != nil {
		return nil, err
	}

	for _, m := range s.store.MonthlyData(ctx) {
		if m.Month == month && m.Year == year {
			found := m
			return &found, nil
		}
	}
	return nil, nil
}

// GetTransaction returns a single transaction by id
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	transactions, err := storage.GetCollection[domain.Transaction](ctx, s.store, domain.KeyTransactions)
	if err != nil {
		return nil, err
	}
	for _, t := range transactions {
		if t.ID == id {
			found := t
			return &found, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (s *LedgerService) buildTransaction(ctx context.Context, id string, input TransactionInput) (domain.Transaction, error) {
	// Validate title
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Transaction{}, domain.ErrTitleRequired
	}
	if len(title) > domain.MaxTitleLength {
		return domain.Transaction{}, domain.ErrTitleTooLong
	}

	// The sign carries the direction, zero is meaningless
	if input.Amount.IsZero() {
		return domain.Transaction{}, domain.ErrInvalidAmount
	}

	date := s.now()
	if input.Date != nil {
		if input.Date.IsZero() {
			return domain.Transaction{}, domain.ErrDateRequired
		}
		date = *input.Date
	}
	// Reject dates no month query could read back
	if err := domain.ValidateMonthYear(domain.MonthOf(date)); err != nil {
		return domain.Transaction{}, err
	}

	var note *string
	if input.Note != nil {
		trimmed := strings.TrimSpace(*input.Note)
		if trimmed != "" {
			if len(trimmed) > domain.MaxNoteLength {
				return domain.Transaction{}, domain.ErrNoteTooLong
			}
			note = &trimmed
		}
	}

	t := domain.Transaction{
		ID:         id,
		Title:      title,
		Amount:     input.Amount,
		Date:       date,
		CategoryID: input.CategoryID,
		Note:       note,
	}

	// Denormalize presentation fields; unknown categories are tolerated
	if c, ok := domain.FindCategory(s.store.Categories(ctx), input.CategoryID); ok {
		t.CategoryIcon = c.Icon
		t.CategoryColor = c.Color
	}
	return t, nil
}

// applyToBudgets adds (sign 1) or removes (sign -1) an expense from the first
// budget covering it.
func applyToBudgets(budgets []domain.Budget, t domain.Transaction, sign int) bool {
	for i := range budgets {
		if budgets[i].Covers(t) {
			delta := t.Amount.Abs().Mul(decimal.NewFromInt(int64(sign)))
			budgets[i].Spent = decimal.Max(budgets[i].Spent.Add(delta), decimal.Zero)
			return true
		}
	}
	return false
}

// recomputeBudgetSpend resets every budget and charges each expense in the
// log to the first budget covering it.
func recomputeBudgetSpend(budgets []domain.Budget, transactions []domain.Transaction) {
	for i := range budgets {
		budgets[i].Spent = decimal.Zero
	}
	for _, t := range transactions {
		applyToBudgets(budgets, t, 1)
	}
}

// applyLedger loads the transaction log with its aggregates, lets fn change
// the log and the aggregates, and writes all three back.
func (s *LedgerService) applyLedger(ctx context.Context, fn func(transactions []domain.Transaction, months []domain.MonthlyData, budgets []domain.Budget) ([]domain.Transaction, []domain.MonthlyData, error)) error {
	return s.store.Update(ctx, ledgerKeys, func(tx *storage.Tx) error {
		transactions, err := storage.Read[domain.Transaction](tx, domain.KeyTransactions)
		if err != nil {
			return err
		}
		months, err := storage.Read[domain.MonthlyData](tx, domain.KeyMonthlyData)
		if err != nil {
			return err
		}
		budgets, err := storage.Read[domain.Budget](tx, domain.KeyBudgets)
		if err != nil {
			return err
		}

		transactions, months, err = fn(transactions, months, budgets)
		if err != nil {
			return err
		}

		if err := storage.Write(tx, domain.KeyTransactions, transactions); err != nil {
			return err
		}
		if err := storage.Write(tx, domain.KeyMonthlyData, months); err != nil {
			return err
		}
		return storage.Write(tx, domain.KeyBudgets, budgets)
	})
}

// RecordTransaction appends a transaction, updates the month totals and
// charges an expense to the first budget active on the transaction's date.
// Budgets are never created here.
func (s *LedgerService) RecordTransaction(ctx context.Context, input TransactionInput) (*domain.Transaction, error) {
	t, err := s.buildTransaction(ctx, "t_"+uuid.NewString(), input)
	if err != nil {
		return nil, err
	}

	err = s.applyLedger(ctx, func(transactions []domain.Transaction, months []domain.MonthlyData, budgets []domain.Budget) ([]domain.Transaction, []domain.MonthlyData, error) {
		transactions = append(transactions, t)
		months = storage.ApplyToMonths(months, t, 1)
		applyToBudgets(budgets, t, 1)
		return transactions, months, nil
	})
	if err != nil {
		log.Error().Err(err).Str("title", t.Title).Msg("Failed to record transaction")
		return nil, err
	}

	s.publisher.Publish(ctx, events.TransactionCreated(t))
	return &t, nil
}

// UpdateTransaction replaces a transaction. The old version's effect on the
// month totals and budget spend is reversed before the new one is applied.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, input TransactionInput) (*domain.Transaction, error) {
	updated, err := s.buildTransaction(ctx, id, input)
	if err != nil {
		return nil, err
	}

	err = s.applyLedger(ctx, func(transactions []domain.Transaction, months []domain.MonthlyData, budgets []domain.Budget) ([]domain.Transaction, []domain.MonthlyData, error) {
		for i := range transactions {
			if transactions[i].ID != id {
				continue
			}
			old := transactions[i]
			if input.Date == nil {
				updated.Date = old.Date
			}
			updated.AttachmentURL = old.AttachmentURL

			months = storage.ApplyToMonths(months, old, -1)
			applyToBudgets(budgets, old, -1)
			months = storage.ApplyToMonths(months, updated, 1)
			applyToBudgets(budgets, updated, 1)

			transactions[i] = updated
			return transactions, months, nil
		}
		return nil, nil, domain.ErrTransactionNotFound
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TransactionUpdated(updated))
	return &updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// aggregates. Deleting an unknown id is a no-op.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	var removed *domain.Transaction
	err := s.applyLedger(ctx, func(transactions []domain.Transaction, months []domain.MonthlyData, budgets []domain.Budget) ([]domain.Transaction, []domain.MonthlyData, error) {
		kept := transactions[:0]
		for _, t := range transactions {
			if t.ID == id && removed == nil {
				old := t
				removed = &old
				months = storage.ApplyToMonths(months, old, -1)
				applyToBudgets(budgets, old, -1)
				continue
			}
			kept = append(kept, t)
		}
		return kept, months, nil
	})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete transaction")
		return err
	}

	if removed != nil {
		s.publisher.Publish(ctx, events.TransactionDeleted(*removed))
	}
	return nil
}

// SetAttachment stores the attachment URL on a transaction
func (s *LedgerService) SetAttachment(ctx context.Context, id, url string) (*domain.Transaction, error) {
	var result domain.Transaction
	err := storage.Mutate(ctx, s.store, domain.KeyTransactions, func(transactions []domain.Transaction) ([]domain.Transaction, error) {
		for i := range transactions {
			if transactions[i].ID == id {
				transactions[i].AttachmentURL = &url
				result = transactions[i]
				return transactions, nil
			}
		}
		return nil, domain.ErrTransactionNotFound
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TransactionUpdated(result))
	return &result, nil
}

// RebuildAggregates recomputes every month total and budget spend from the
// transaction log.
func (s *LedgerService) RebuildAggregates(ctx context.Context) error {
	err := s.applyLedger(ctx, func(transactions []domain.Transaction, _ []domain.MonthlyData, budgets []domain.Budget) ([]domain.Transaction, []domain.MonthlyData, error) {
		recomputeBudgetSpend(budgets, transactions)
		return transactions, storage.SummarizeMonths(transactions), nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to rebuild aggregates")
		return err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeRebuilt, events.EntityTypeLedger, nil))
	return nil
}
