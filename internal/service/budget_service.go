package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/events"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var budgetKeys = []string{domain.KeyBudgets, domain.KeyTransactions}

// BudgetService handles budget business logic. Spent is always derived from
// the transaction log when budgets change, so adding or removing a budget
// never leaves stale totals behind.
type BudgetService struct {
	store     *storage.Adapter
	publisher events.Publisher
	now       func() time.Time
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(store *storage.Adapter, publisher events.Publisher) *BudgetService {
	if publisher == nil {
		publisher = events.NoOpPublisher{}
	}
	return &BudgetService{store: store, publisher: publisher, now: time.Now}
}

// CreateBudgetInput holds the input for creating a budget
type CreateBudgetInput struct {
	CategoryID string
	Amount     decimal.Decimal
	Period     domain.BudgetPeriod
	Year       int
	Month      *int
}

// UpdateBudgetInput holds the editable fields of a budget
type UpdateBudgetInput struct {
	CategoryID string
	Amount     decimal.Decimal
}

// GetBudgets returns every budget in storage order
func (s *BudgetService) GetBudgets(ctx context.Context) ([]domain.Budget, error) {
	return storage.GetCollection[domain.Budget](ctx, s.store, domain.KeyBudgets)
}

func (s *BudgetService) validateCategory(ctx context.Context, categoryID string) (string, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return "", domain.ErrCategoryNotFound
	}
	if _, ok := domain.FindCategory(s.store.Categories(ctx), categoryID); !ok {
		return "", domain.ErrCategoryNotFound
	}
	return categoryID, nil
}

// CreateBudget validates and stores a new budget. Its spent total covers the
// expenses already in the log that no earlier budget claims.
func (s *BudgetService) CreateBudget(ctx context.Context, input CreateBudgetInput) (*domain.Budget, error) {
	categoryID, err := s.validateCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	// Validate amount (must be positive)
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	period := input.Period
	if period == "" {
		period = domain.BudgetPeriodMonthly
	}
	if !period.IsValid() {
		return nil, domain.ErrInvalidPeriod
	}

	year := input.Year
	if year == 0 {
		year = s.now().Year()
	}

	var month *int
	if period == domain.BudgetPeriodMonthly {
		if input.Month == nil {
			return nil, domain.ErrInvalidMonth
		}
		m := *input.Month
		month = &m
		if err := domain.ValidateMonthYear(m, year); err != nil {
			return nil, err
		}
	} else if err := domain.ValidateMonthYear(0, year); err != nil {
		return nil, err
	}

	budget := domain.Budget{
		ID:         "b_" + uuid.NewString(),
		CategoryID: categoryID,
		Amount:     input.Amount,
		Period:     period,
		Spent:      decimal.Zero,
		Year:       year,
		Month:      month,
	}

	err = s.applyBudgets(ctx, func(budgets []domain.Budget) ([]domain.Budget, error) {
		return append(budgets, budget), nil
	}, func(budgets []domain.Budget) {
		budget = budgets[len(budgets)-1]
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeCreated, events.EntityTypeBudget, budget))
	return &budget, nil
}

// UpdateBudget changes a budget's category and amount
func (s *BudgetService) UpdateBudget(ctx context.Context, id string, input UpdateBudgetInput) (*domain.Budget, error) {
	categoryID, err := s.validateCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var updated domain.Budget
	err = s.applyBudgets(ctx, func(budgets []domain.Budget) ([]domain.Budget, error) {
		for i := range budgets {
			if budgets[i].ID == id {
				budgets[i].CategoryID = categoryID
				budgets[i].Amount = input.Amount
				return budgets, nil
			}
		}
		return nil, domain.ErrBudgetNotFound
	}, func(budgets []domain.Budget) {
		for _, b := range budgets {
			if b.ID == id {
				updated = b
			}
		}
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeUpdated, events.EntityTypeBudget, updated))
	return &updated, nil
}

// DeleteBudget removes a budget
func (s *BudgetService) DeleteBudget(ctx context.Context, id string) error {
	err := s.applyBudgets(ctx, func(budgets []domain.Budget) ([]domain.Budget, error) {
		kept := make([]domain.Budget, 0, len(budgets))
		found := false
		for _, b := range budgets {
			if b.ID == id {
				found = true
				continue
			}
			kept = append(kept, b)
		}
		if !found {
			return nil, domain.ErrBudgetNotFound
		}
		return kept, nil
	}, nil)
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.NewEvent(events.EventTypeDeleted, events.EntityTypeBudget, map[string]string{"id": id}))
	return nil
}

// Progress returns every budget with its spend ratio, in storage order
func (s *BudgetService) Progress(ctx context.Context) ([]domain.BudgetProgress, error) {
	budgets, err := s.GetBudgets(ctx)
	if err != nil {
		return nil, err
	}

	categories := s.store.Categories(ctx)
	result := make([]domain.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		name := ""
		if c, ok := domain.FindCategory(categories, b.CategoryID); ok {
			name = c.Name
		}
		result = append(result, domain.NewBudgetProgress(b, name))
	}
	return result, nil
}

// applyBudgets changes the budget list, recomputes spend from the log and
// hands the stored result to done.
func (s *BudgetService) applyBudgets(ctx context.Context, change func([]domain.Budget) ([]domain.Budget, error), done func([]domain.Budget)) error {
	return s.store.Update(ctx, budgetKeys, func(tx *storage.Tx) error {
		budgets, err := storage.Read[domain.Budget](tx, domain.KeyBudgets)
		if err != nil {
			return err
		}
		transactions, err := storage.Read[domain.Transaction](tx, domain.KeyTransactions)
		if err != nil {
			return err
		}

		budgets, err = change(budgets)
		if err != nil {
			return err
		}
		recomputeBudgetSpend(budgets, transactions)

		if err := storage.Write(tx, domain.KeyBudgets, budgets); err != nil {
			return err
		}
		if done != nil {
			done(budgets)
		}
		return nil
	})
}
