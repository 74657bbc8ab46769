package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
	"github.com/josh-kwaku/pocket-ledger/internal/service/ledger"
	"github.com/josh-kwaku/pocket-ledger/internal/testutil"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type services struct {
	ledger    *ledger.Service
	accounts  *service.AccountService
	analytics *service.AnalyticsService
}

func setupServices(t *testing.T, db *sql.DB, store cache.Store) services {
	t.Helper()
	inv := cache.NewInvalidator(store, nil)
	accounts := service.NewAccountService(repository.NewAccountRepository(db), store, inv, db, time.Hour)
	return services{
		ledger: ledger.NewService(
			repository.NewAccountRepository(db),
			repository.NewSubcategoryRepository(db),
			repository.NewTransactionRepository(db),
			inv,
			db,
		),
		accounts:  accounts,
		analytics: service.NewAnalyticsService(repository.NewAnalyticsRepository(db), accounts, store, time.Hour),
	}
}

func TestAnalytics_MonthlySummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := cache.NewMemory(100)
	svc := setupServices(t, db, store)
	ctx := context.Background()

	user := testutil.SeedTestUser(t, db, "analytics@test.com")
	bank := testutil.SeedTestAccount(t, db, user.ID, "Bank", "0")
	cash := testutil.SeedTestAccount(t, db, user.ID, "Cash", "500")
	food := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	salary := testutil.SeedTestCategory(t, db, user.ID, "Salary", domain.CategoryTypeIncome)
	lunch := testutil.SeedTestSubcategory(t, db, food.ID, "Lunch")
	dinner := testutil.SeedTestSubcategory(t, db, food.ID, "Dinner")
	monthly := testutil.SeedTestSubcategory(t, db, salary.ID, "Monthly")

	create := func(account *domain.Account, sub *domain.Subcategory, amount string, date time.Time) {
		t.Helper()
		_, err := svc.ledger.Create(ctx, ledger.CreateRequest{
			UserID: user.ID, AccountID: account.ID, SubcategoryID: sub.ID, Amount: d(amount), Date: date,
		})
		require.NoError(t, err)
	}
	create(bank, lunch, "100", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
	create(cash, dinner, "50", time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	create(bank, monthly, "2000", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	create(bank, lunch, "999", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	s, err := svc.analytics.Summary(ctx, user.ID, 2024, 5)
	require.NoError(t, err)

	assert.True(t, s.TotalExpense.Equal(d("150")), "expense %s", s.TotalExpense)
	assert.True(t, s.TotalIncome.Equal(d("2000")), "income %s", s.TotalIncome)
	assert.True(t, s.NetIncome.Equal(d("1850")), "net %s", s.NetIncome)

	require.Len(t, s.Categories, 1)
	assert.Equal(t, "Food", s.Categories[0].Category)
	assert.True(t, s.Categories[0].Amount.Equal(d("150")))
	assert.Equal(t, 2, s.Categories[0].Count)

	require.Len(t, s.Accounts, 2)
	assert.Equal(t, "Bank", s.Accounts[0].Name, "sorted by balance desc")
	assert.True(t, s.Accounts[0].Balance.Equal(d("901")))
	assert.True(t, s.Accounts[1].Balance.Equal(d("450")))

	_, ok, err := store.Get(ctx, cache.AnalyticsKey(user.ID, 2024, 5))
	require.NoError(t, err)
	assert.True(t, ok, "summary is memoized")

	create(cash, dinner, "25", time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC))
	s, err = svc.analytics.Summary(ctx, user.ID, 2024, 5)
	require.NoError(t, err)
	assert.True(t, s.TotalExpense.Equal(d("175")), "write invalidates the month")
	assert.True(t, s.Accounts[1].Balance.Equal(d("425")), "write invalidates balances")
}

func TestAnalytics_EmptyMonthAndValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, cache.Noop{})
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "empty@test.com")

	s, err := svc.analytics.Summary(ctx, user.ID, 2024, 1)
	require.NoError(t, err)
	assert.True(t, s.TotalExpense.IsZero())
	assert.True(t, s.NetIncome.IsZero())
	assert.Empty(t, s.Categories)
	assert.Empty(t, s.Accounts)

	_, err = svc.analytics.Summary(ctx, user.ID, 2024, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
