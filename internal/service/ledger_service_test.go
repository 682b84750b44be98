package service

import (
	"context"
	"errors"
	"strings"
		"sync"
	"testing"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/storage"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransaction_ExpenseUpdatesMonthAndBudget(t *testing.T) {
	ctx := context.Background()
	svc, store, publisher := newTestLedger(t)
	seedCategories(t, store)
	require.NoError(t, storage.AddItem(ctx, store, domain.KeyBudgets, domain.Budget{
		ID: "b1", CategoryID: "food", Amount: decimal.NewFromInt(2000),
		Period: domain.BudgetPeriodMonthly, Spent: decimal.Zero, Year: 2025, Month: intPtr(4),
	}))

	tx := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")

	assert.Regexp(t, `^t_`, tx.ID)
	assert.Equal(t, "🍔", tx.CategoryIcon)
	assert.Equal(t, "#FF6B6B", tx.CategoryColor)

	overview, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	require.NotNil(t, overview)
	assert.Equal(t, "45", overview.Expenses.String())
	assert.True(t, overview.Income.IsZero())

	budgets := store.Budgets(ctx)
	require.Len(t, budgets, 1)
	assert.Equal(t, "45", budgets[0].Spent.String())

	assert.Equal(t, []string{"transaction.created"}, publisher.Types())
}

func TestRecordTransaction_IncomeSkipsBudgets(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	require.NoError(t, storage.AddItem(ctx, store, domain.KeyBudgets, domain.Budget{
		ID: "b1", CategoryID: "salary", Amount: decimal.NewFromInt(100),
		Period: domain.BudgetPeriodYearly, Spent: decimal.Zero, Year: 2025,
	}))

	record(t, svc, "工资", 12000, day(2025, time.May, 10), "salary")

	overview, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	require.NotNil(t, overview)
	assert.Equal(t, "12000", overview.Income.String())
	assert.True(t, overview.Expenses.IsZero())
	assert.True(t, store.Budgets(ctx)[0].Spent.IsZero())
}

func TestRecordTransaction_BudgetMatchesTransactionDate(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	svc.now = func() time.Time { return time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyBudgets, []domain.Budget{
		{ID: "july", CategoryID: "food", Amount: decimal.NewFromInt(500), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(6)},
		{ID: "may", CategoryID: "food", Amount: decimal.NewFromInt(500), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(4)},
	}))

	record(t, svc, "晚餐", -60, day(2025, time.May, 20), "food")

	budgets := store.Budgets(ctx)
	assert.True(t, budgets[0].Spent.IsZero())
	assert.Equal(t, "60", budgets[1].Spent.String())
}

func TestRecordTransaction_NoBudgetIsCreated(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)

	record(t, svc, "打车", -35, day(2025, time.May, 14), "transport")

	assert.Empty(t, store.Budgets(ctx))
	assert.Len(t, store.MonthlyData(ctx), 1)
}

func TestRecordTransaction_DefaultsDateToNow(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	fixed := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	tx := record(t, svc, "咖啡", -18, nil, "food")

	assert.True(t, tx.Date.Equal(fixed))
}

func TestRecordTransaction_UnknownCategoryTolerated(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	tx := record(t, svc, "神秘支出", -10, day(2025, time.May, 1), "ghost")

	assert.Equal(t, "ghost", tx.CategoryID)
	assert.Empty(t, tx.CategoryIcon)
}

func TestRecordTransaction_Validation(t *testing.T) {
	svc, store, _ := newTestLedger(t)
	zero := time.Time{}
	longNote := strings.Repeat("n", domain.MaxNoteLength+1)

	tests := []struct {
		name    string
		input   TransactionInput
		wantErr error
	}{
		{"blank title", TransactionInput{Title: "   ", Amount: decimal.NewFromInt(-1)}, domain.ErrTitleRequired},
		{"zero amount", TransactionInput{Title: "x", Amount: decimal.Zero}, domain.ErrInvalidAmount},
		{"zero date", TransactionInput{Title: "x", Amount: decimal.NewFromInt(1), Date: &zero}, domain.ErrDateRequired},
		{"title too long", TransactionInput{Title: strings.Repeat("t", domain.MaxTitleLength+1), Amount: decimal.NewFromInt(1)}, domain.ErrTitleTooLong},
		{"note too long", TransactionInput{Title: "x", Amount: decimal.NewFromInt(1), Note: &longNote}, domain.ErrNoteTooLong},
		{"year before range", TransactionInput{Title: "x", Amount: decimal.NewFromInt(-10), Date: day(1999, time.December, 31)}, domain.ErrInvalidYear},
		{"year after range", TransactionInput{Title: "x", Amount: decimal.NewFromInt(-10), Date: day(2101, time.January, 1)}, domain.ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordTransaction(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, store.Transactions(context.Background()))
}

func TestRecordTransaction_BoundaryYearsAreReadable(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	record(t, svc, "first", -10, day(domain.MinYear, time.January, 1), "1")
	record(t, svc, "last", -20, day(domain.MaxYear, time.December, 31), "1")

	first, err := svc.TransactionsForMonth(ctx, 0, domain.MinYear)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "first", first[0].Title)

	overview, err := svc.MonthlyOverview(ctx, 11, domain.MaxYear)
	require.NoError(t, err)
	require.NotNil(t, overview)
	assert.True(t, overview.Expenses.Equal(decimal.NewFromInt(20)))
}

func TestRecordTransaction_DoubleRecordDoubleCounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)

	first := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")
	second := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")

	assert.NotEqual(t, first.ID, second.ID)
	overview, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, "90", overview.Expenses.String())
}

func TestRecordTransaction_ConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordTransaction(ctx, TransactionInput{
				Title: "tap", Amount: decimal.NewFromInt(-1), Date: day(2025, time.May, 2), CategoryID: "food",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, store.Transactions(ctx), 40)
	overview, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, "40", overview.Expenses.String())
}

func TestRecordTransaction_WriteFailure(t *testing.T) {
	failing := testutil.NewFailingStore()
	failing.FailSet(domain.KeyTransactions)
	store := storage.NewAdapter(failing)
	svc := NewLedgerService(store, nil)

	_, err := svc.RecordTransaction(context.Background(), TransactionInput{
		Title: "x", Amount: decimal.NewFromInt(-5), Date: day(2025, time.May, 1),
	})

	assert.ErrorIs(t, err, testutil.ErrInjected)
}

func TestTransactionsForMonth_YearRollover(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)

	dec := time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC)
	jan := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyTransactions, []domain.Transaction{
		{ID: "dec", Title: "跨年", Amount: decimal.NewFromInt(-1), Date: dec},
		{ID: "jan", Title: "新年", Amount: decimal.NewFromInt(-2), Date: jan},
		{ID: "dec2023", Title: "去年", Amount: decimal.NewFromInt(-3), Date: dec.AddDate(-1, 0, 0)},
	}))

	december, err := svc.TransactionsForMonth(ctx, 11, 2024)
	require.NoError(t, err)
	require.Len(t, december, 1)
	assert.Equal(t, "dec", december[0].ID)

	january, err := svc.TransactionsForMonth(ctx, 0, 2025)
	require.NoError(t, err)
	require.Len(t, january, 1)
	assert.Equal(t, "jan", january[0].ID)
}

func TestTransactionsForMonth_StorageOrderAndValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyTransactions, storage.SeedTransactions()))

	may, err := svc.TransactionsForMonth(ctx, 4, 2025)
	require.NoError(t, err)
	ids := make([]string, len(may))
	for i, tx := range may {
		ids[i] = tx.ID
	}
	assert.Equal(t, []string{"t1", "t2", "t3", "t4", "t5"}, ids)

	_, err = svc.TransactionsForMonth(ctx, 12, 2025)
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
	_, err = svc.TransactionsForMonth(ctx, 0, 1999)
	assert.ErrorIs(t, err, domain.ErrInvalidYear)
}

func TestTransactionsForMonth_ReadFailureDegradesToEmpty(t *testing.T) {
	failing := testutil.NewFailingStore()
	failing.FailGet(domain.KeyTransactions)
	svc := NewLedgerService(storage.NewAdapter(failing), nil)

	result, err := svc.TransactionsForMonth(context.Background(), 4, 2025)

	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestRecentTransactions(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyTransactions, storage.SeedTransactions()))
	require.NoError(t, storage.AddItem(ctx, store, domain.KeyTransactions, domain.Transaction{
		ID: "t6", Title: "早餐", Amount: decimal.NewFromInt(-12), Date: time.Date(2025, time.May, 15, 8, 0, 0, 0, time.UTC),
	}))

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"default limit", 0, []string{"t6", "t1", "t2", "t3", "t4"}},
		{"explicit limit", 2, []string{"t6", "t1"}},
		{"limit above size", 50, []string{"t6", "t1", "t2", "t3", "t4", "t5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recent := svc.RecentTransactions(ctx, tt.limit)
			ids := make([]string, len(recent))
			for i, tx := range recent {
				ids[i] = tx.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCategoryBreakdown_FirstSeenOrder(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	seedCategories(t, store)

	record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")
	record(t, svc, "打车", -35, day(2025, time.May, 14), "transport")
	record(t, svc, "超市", -210, day(2025, time.May, 13), "food")
	record(t, svc, "工资", 12000, day(2025, time.May, 10), "salary")
	record(t, svc, "六月", -99, day(2025, time.June, 1), "food")

	breakdown, err := svc.CategoryBreakdown(ctx, 4, 2025)
	require.NoError(t, err)

	require.Len(t, breakdown, 2)
	assert.Equal(t, "餐饮", breakdown[0].Name)
	assert.Equal(t, "255", breakdown[0].Amount.String())
	assert.Equal(t, "#FF6B6B", breakdown[0].Color)
	assert.Equal(t, "交通", breakdown[1].Name)
	assert.Equal(t, "35", breakdown[1].Amount.String())
}

func TestCategoryBreakdown_UnknownCategoriesExcluded(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	seedCategories(t, store)

	record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")
	record(t, svc, "神秘", -500, day(2025, time.May, 14), "ghost")

	breakdown, err := svc.CategoryBreakdown(ctx, 4, 2025)
	require.NoError(t, err)

	total := decimal.Zero
	for _, slice := range breakdown {
		total = total.Add(slice.Amount)
	}
	assert.Equal(t, "45", total.String())
}

func TestDailyTrend(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestLedger(t)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyTransactions, storage.SeedTransactions()))

	trend, err := svc.DailyTrend(ctx, 4, 2025)
	require.NoError(t, err)

	require.Len(t, trend, 3)
	assert.Equal(t, "5-12", trend[0].Date)
	assert.Equal(t, "80", trend[0].Amount.String())
	assert.Equal(t, "5-13", trend[1].Date)
	assert.Equal(t, "210", trend[1].Amount.String())
	assert.Equal(t, "5-14", trend[2].Date)
	assert.Equal(t, "80", trend[2].Amount.String())
}

func TestDailyTrend_PadsDay(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	record(t, svc, "早餐", -8, day(2025, time.January, 3), "food")

	trend, err := svc.DailyTrend(context.Background(), 0, 2025)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.Equal(t, "1-03", trend[0].Date)
}

func TestMonthlyOverview_Absent(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	overview, err := svc.MonthlyOverview(context.Background(), 4, 2025)

	require.NoError(t, err)
	assert.Nil(t, overview)
}

func TestUpdateTransaction_CompensatesAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store, publisher := newTestLedger(t)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyBudgets, []domain.Budget{
		{ID: "food", CategoryID: "food", Amount: decimal.NewFromInt(1000), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(4)},
		{ID: "fun", CategoryID: "entertainment", Amount: decimal.NewFromInt(1000), Period: domain.BudgetPeriodYearly, Year: 2025},
	}))
	tx := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")

	updated, err := svc.UpdateTransaction(ctx, tx.ID, TransactionInput{
		Title: "电影", Amount: decimal.NewFromInt(-80), Date: day(2025, time.June, 2), CategoryID: "entertainment",
	})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, updated.ID)

	may, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	assert.True(t, may.Expenses.IsZero())
	june, err := svc.MonthlyOverview(ctx, 5, 2025)
	require.NoError(t, err)
	assert.Equal(t, "80", june.Expenses.String())

	budgets := store.Budgets(ctx)
	assert.True(t, budgets[0].Spent.IsZero())
	assert.Equal(t, "80", budgets[1].Spent.String())

	assert.Equal(t, []string{"transaction.created", "transaction.updated"}, publisher.Types())
}

func TestUpdateTransaction_KeepsDateWhenOmitted(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)
	tx := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")

	updated, err := svc.UpdateTransaction(ctx, tx.ID, TransactionInput{Title: "午饭", Amount: decimal.NewFromInt(-50), CategoryID: "food"})

	require.NoError(t, err)
	assert.True(t, updated.Date.Equal(tx.Date))
}

func TestUpdateTransaction_NotFound(t *testing.T) {
	svc, _, _ := newTestLedger(t)

	_, err := svc.UpdateTransaction(context.Background(), "missing", TransactionInput{Title: "x", Amount: decimal.NewFromInt(1)})

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteTransaction_ReversesAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store, publisher := newTestLedger(t)
	require.NoError(t, storage.AddItem(ctx, store, domain.KeyBudgets, domain.Budget{
		ID: "b1", CategoryID: "food", Amount: decimal.NewFromInt(100), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(4),
	}))
	keep := record(t, svc, "午餐", -45, day(2025, time.May, 14), "food")
	drop := record(t, svc, "晚餐", -30, day(2025, time.May, 14), "food")

	require.NoError(t, svc.DeleteTransaction(ctx, drop.ID))

	remaining := store.Transactions(ctx)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)
	overview, err := svc.MonthlyOverview(ctx, 4, 2025)
	require.NoError(t, err)
	assert.Equal(t, "45", overview.Expenses.String())
	assert.Equal(t, "45", store.Budgets(ctx)[0].Spent.String())
	assert.Equal(t, "transaction.deleted", publisher.Types()[2])
}

func TestDeleteTransaction_MissingIsNoOp(t *testing.T) {
	svc, _, publisher := newTestLedger(t)

	err := svc.DeleteTransaction(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Empty(t, publisher.Types())
}

func TestSetAttachment(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestLedger(t)
	tx := record(t, svc, "发票", -20, day(2025, time.May, 3), "shopping")

	updated, err := svc.SetAttachment(ctx, tx.ID, "/files/a.jpg")
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentURL)
	assert.Equal(t, "/files/a.jpg", *updated.AttachmentURL)

	got, err := svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "/files/a.jpg", *got.AttachmentURL)

	_, err = svc.SetAttachment(ctx, "missing", "x")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestRebuildAggregates(t *testing.T) {
	ctx := context.Background()
	svc, store, publisher := newTestLedger(t)
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyTransactions, storage.SeedTransactions()))
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyBudgets, []domain.Budget{
		{ID: "b1", CategoryID: "food", Amount: decimal.NewFromInt(100), Spent: decimal.NewFromInt(999), Period: domain.BudgetPeriodMonthly, Year: 2025, Month: intPtr(4)},
	}))
	require.NoError(t, storage.SaveCollection(ctx, store, domain.KeyMonthlyData, []domain.MonthlyData{
		{Month: 0, Year: 2020, Income: decimal.NewFromInt(1), Expenses: decimal.NewFromInt(1)},
	}))

	require.NoError(t, svc.RebuildAggregates(ctx))

	months := store.MonthlyData(ctx)
	require.Len(t, months, 1)
	assert.Equal(t, 4, months[0].Month)
	assert.Equal(t, "12000", months[0].Income.String())
	assert.Equal(t, "370", months[0].Expenses.String())
	assert.Equal(t, "45", store.Budgets(ctx)[0].Spent.String())
	assert.Equal(t, []string{"ledger.rebuilt"}, publisher.Types())
}
