package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
	"github.com/josh-kwaku/pocket-ledger/internal/testutil"
)

func TestCategory_CreateSubcategoryAppends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCategoryService(repository.NewCategoryRepository(db), repository.NewSubcategoryRepository(db), db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "cat@test.com")

	food, err := svc.CreateCategory(ctx, user.ID, "Food", "", domain.CategoryTypeExpense)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategoryColor, food.Color)
	assert.Empty(t, food.Subcategories)

	for _, name := range []string{"Breakfast", "Lunch"} {
		_, err := svc.CreateSubcategory(ctx, user.ID, food.ID, name)
		require.NoError(t, err)
	}
	dinner, err := svc.CreateSubcategory(ctx, user.ID, food.ID, "Dinner")
	require.NoError(t, err)
	assert.Equal(t, 3, dinner.SortOrder)

	categories, err := svc.ListCategories(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Len(t, categories[0].Subcategories, 3)
	assert.Equal(t, "Breakfast", categories[0].Subcategories[0].Name)
	assert.Equal(t, "Dinner", categories[0].Subcategories[2].Name)

	other := testutil.SeedTestUser(t, db, "other@test.com")
	_, err = svc.CreateSubcategory(ctx, other.ID, food.ID, "Snacks")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategory_Reorder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCategoryService(repository.NewCategoryRepository(db), repository.NewSubcategoryRepository(db), db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "reorder@test.com")
	cat := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	a := testutil.SeedTestSubcategory(t, db, cat.ID, "a")
	b := testutil.SeedTestSubcategory(t, db, cat.ID, "b")
	c := testutil.SeedTestSubcategory(t, db, cat.ID, "c")

	require.NoError(t, svc.Reorder(ctx, user.ID, []uuid.UUID{c.ID, a.ID, b.ID}))

	orders := testutil.SortOrders(t, db, cat.ID)
	assert.Equal(t, 2, orders[a.ID])
	assert.Equal(t, 3, orders[b.ID])
	assert.Equal(t, 1, orders[c.ID])
}

func TestCategory_ReorderRejectsWithoutWriting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCategoryService(repository.NewCategoryRepository(db), repository.NewSubcategoryRepository(db), db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "reject@test.com")
	cat := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	otherCat := testutil.SeedTestCategory(t, db, user.ID, "Fun", domain.CategoryTypeExpense)
	a := testutil.SeedTestSubcategory(t, db, cat.ID, "a")
	b := testutil.SeedTestSubcategory(t, db, cat.ID, "b")
	x := testutil.SeedTestSubcategory(t, db, otherCat.ID, "x")

	stranger := testutil.SeedTestUser(t, db, "stranger@test.com")

	tests := []struct {
		name    string
		userID  uuid.UUID
		ids     []uuid.UUID
		wantErr error
	}{
		{name: "empty", userID: user.ID, ids: nil, wantErr: domain.ErrValidation},
		{name: "duplicate", userID: user.ID, ids: []uuid.UUID{b.ID, b.ID}, wantErr: domain.ErrValidation},
		{name: "unknown id", userID: user.ID, ids: []uuid.UUID{b.ID, uuid.New()}, wantErr: domain.ErrNotFound},
		{name: "not owned", userID: stranger.ID, ids: []uuid.UUID{b.ID, a.ID}, wantErr: domain.ErrNotFound},
		{name: "mixed categories", userID: user.ID, ids: []uuid.UUID{b.ID, x.ID}, wantErr: domain.ErrValidation},
		{name: "partial set", userID: user.ID, ids: []uuid.UUID{b.ID}, wantErr: domain.ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Reorder(ctx, tc.userID, tc.ids)
			assert.ErrorIs(t, err, tc.wantErr)

			orders := testutil.SortOrders(t, db, cat.ID)
			assert.Equal(t, 1, orders[a.ID])
			assert.Equal(t, 2, orders[b.ID])
		})
	}
}

func TestCategory_DeleteBlockedByTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewCategoryService(repository.NewCategoryRepository(db), repository.NewSubcategoryRepository(db), db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "delete@test.com")
	account := testutil.SeedTestAccount(t, db, user.ID, "Bank", "0")
	cat := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	used := testutil.SeedTestSubcategory(t, db, cat.ID, "used")
	middle := testutil.SeedTestSubcategory(t, db, cat.ID, "middle")
	last := testutil.SeedTestSubcategory(t, db, cat.ID, "last")

	_, err := db.Exec(
		`INSERT INTO transactions (id, user_id, account_id, subcategory_id, amount, date)
		 VALUES ($1, $2, $3, $4, 10, '2024-05-01')`,
		uuid.New(), user.ID, account.ID, used.ID,
	)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteSubcategory(ctx, user.ID, used.ID), domain.ErrHasTransactions)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, user.ID, cat.ID), domain.ErrConflict)
	assert.ErrorIs(t, svc.DeleteSubcategory(ctx, user.ID, uuid.New()), domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, user.ID, uuid.New()), domain.ErrNotFound)

	require.NoError(t, svc.DeleteSubcategory(ctx, user.ID, middle.ID))
	orders := testutil.SortOrders(t, db, cat.ID)
	assert.Len(t, orders, 2)
	assert.Equal(t, 1, orders[used.ID])
	assert.Equal(t, 2, orders[last.ID], "siblings are compacted")

	empty := testutil.SeedTestCategory(t, db, user.ID, "Empty", domain.CategoryTypeIncome)
	testutil.SeedTestSubcategory(t, db, empty.ID, "Other")
	require.NoError(t, svc.DeleteCategory(ctx, user.ID, empty.ID))

	categories, err := svc.ListCategories(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
