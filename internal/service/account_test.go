package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
	"github.com/josh-kwaku/pocket-ledger/internal/service/ledger"
	"github.com/josh-kwaku/pocket-ledger/internal/testutil"
)

func TestAccount_CreateListDefault(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, cache.NewMemory(100))
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "accounts@test.com")

	first, err := svc.accounts.CreateAccount(ctx, service.AccountInput{
		UserID: user.ID, Name: "Wallet", Type: domain.AccountTypeCash, InitialBalance: d("100"), IsDefault: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCurrency, first.Currency)
	assert.True(t, first.CurrentBalance.Equal(d("100")))

	_, err = svc.accounts.ListAccounts(ctx, user.ID)
	require.NoError(t, err)

	second, err := svc.accounts.CreateAccount(ctx, service.AccountInput{
		UserID: user.ID, Name: "Bank", Type: domain.AccountTypeBank, InitialBalance: d("0"), IsDefault: true,
	})
	require.NoError(t, err)

	accounts, err := svc.accounts.ListAccounts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 2, "create invalidates the cached list")
	assert.Equal(t, second.ID, accounts[0].ID)
	assert.True(t, accounts[0].IsDefault)
	assert.False(t, accounts[1].IsDefault, "previous default cleared")
}

func TestAccount_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, cache.Noop{})
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "invalid@test.com")

	tests := []struct {
		name    string
		in      service.AccountInput
		wantErr error
	}{
		{name: "blank name", in: service.AccountInput{Name: " ", Type: domain.AccountTypeCash}, wantErr: domain.ErrNameRequired},
		{name: "bad type", in: service.AccountInput{Name: "X", Type: "savings"}, wantErr: domain.ErrInvalidAccountType},
		{name: "fractional cents", in: service.AccountInput{Name: "X", Type: domain.AccountTypeBank, InitialBalance: d("1.001")}, wantErr: domain.ErrInvalidBalance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.UserID = user.ID
			_, err := svc.accounts.CreateAccount(ctx, tc.in)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAccount_UpdateShiftsBalanceAndDeleteRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, cache.Noop{})
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "update@test.com")
	account := testutil.SeedTestAccount(t, db, user.ID, "Bank", "1000")
	cat := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	sub := testutil.SeedTestSubcategory(t, db, cat.ID, "Lunch")

	tx, err := svc.ledger.Create(ctx, ledger.CreateRequest{
		UserID: user.ID, AccountID: account.ID, SubcategoryID: sub.ID, Amount: d("300"),
		Date: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	newInitial := d("1500")
	updated, err := svc.accounts.UpdateAccount(ctx, service.AccountUpdate{
		UserID: user.ID, ID: account.ID, Name: "Main Bank", Type: domain.AccountTypeBank, InitialBalance: &newInitial,
	})
	require.NoError(t, err)
	assert.Equal(t, "Main Bank", updated.Name)
	assert.True(t, updated.CurrentBalance.Equal(d("1200")))
	assert.True(t, testutil.GetAccountBalance(t, db, account.ID).Equal(testutil.ExpectedBalance(t, db, account.ID)))

	err = svc.accounts.DeleteAccount(ctx, user.ID, account.ID)
	assert.ErrorIs(t, err, domain.ErrHasTransactions)

	require.NoError(t, svc.ledger.Delete(ctx, user.ID, tx.ID))
	require.NoError(t, svc.accounts.DeleteAccount(ctx, user.ID, account.ID))
	assert.ErrorIs(t, svc.accounts.DeleteAccount(ctx, user.ID, account.ID), domain.ErrNotFound)

	_, err = svc.accounts.UpdateAccount(ctx, service.AccountUpdate{
		UserID: user.ID, ID: uuid.New(), Name: "X", Type: domain.AccountTypeCash,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccount_UpdateKeepsOmittedFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupServices(t, db, cache.Noop{})
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "partial@test.com")

	account, err := svc.accounts.CreateAccount(ctx, service.AccountInput{
		UserID: user.ID, Name: "Savings", Type: domain.AccountTypeBank, InitialBalance: d("5000"), IsDefault: true,
	})
	require.NoError(t, err)

	updated, err := svc.accounts.UpdateAccount(ctx, service.AccountUpdate{
		UserID: user.ID, ID: account.ID, Name: "Wallet", Type: domain.AccountTypeCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "Wallet", updated.Name)
	assert.Equal(t, domain.AccountTypeCash, updated.Type)
	assert.True(t, updated.InitialBalance.Equal(d("5000")))
	assert.True(t, updated.CurrentBalance.Equal(d("5000")))
	assert.True(t, updated.IsDefault)
	assert.True(t, testutil.GetAccountBalance(t, db, account.ID).Equal(d("5000")))

	notDefault := false
	updated, err = svc.accounts.UpdateAccount(ctx, service.AccountUpdate{
		UserID: user.ID, ID: account.ID, Name: "Wallet", Type: domain.AccountTypeCash, IsDefault: &notDefault,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsDefault)
	assert.True(t, updated.CurrentBalance.Equal(d("5000")))
}
