package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
	"github.com/josh-kwaku/pocket-ledger/internal/testutil"
)

func TestIdempotency_SaveKeepsLiveRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "idem@test.com")

	record := func(hash string) *repository.IdempotencyRecord {
		return &repository.IdempotencyRecord{
			Key:          "k1",
			UserID:       user.ID,
			RequestHash:  hash,
			StatusCode:   201,
			ResponseBody: []byte(`{"success":true}`),
			ExpiresAt:    time.Now().UTC().Add(time.Hour),
		}
	}

	require.NoError(t, repo.Save(ctx, record("first")))
	require.NoError(t, repo.Save(ctx, record("second")))

	got, err := repo.Lookup(ctx, user.ID, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.RequestHash)
}

func TestIdempotency_SaveReplacesExpiredRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewIdempotencyRepository(db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "expired@test.com")

	require.NoError(t, repo.Save(ctx, &repository.IdempotencyRecord{
		Key:          "k1",
		UserID:       user.ID,
		RequestHash:  "stale",
		StatusCode:   201,
		ResponseBody: []byte(`{}`),
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}))
	_, err := db.Exec(
		`UPDATE idempotency_cache SET expires_at = now() - interval '1 minute' WHERE user_id = $1`, user.ID,
	)
	require.NoError(t, err)

	got, err := repo.Lookup(ctx, user.ID, "k1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, &repository.IdempotencyRecord{
		Key:          "k1",
		UserID:       user.ID,
		RequestHash:  "fresh",
		StatusCode:   200,
		ResponseBody: []byte(`{"success":true}`),
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}))

	got, err = repo.Lookup(ctx, user.ID, "k1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "fresh", got.RequestHash)
	assert.Equal(t, 200, got.StatusCode)
}

func TestSubcategory_SetSortOrderMissingRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewSubcategoryRepository(db)
	ctx := context.Background()
	user := testutil.SeedTestUser(t, db, "sort@test.com")
	cat := testutil.SeedTestCategory(t, db, user.ID, "Food", domain.CategoryTypeExpense)
	sub := testutil.SeedTestSubcategory(t, db, cat.ID, "a")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, repo.SetSortOrder(ctx, tx, sub.ID, 5))
	err = repo.SetSortOrder(ctx, tx, uuid.New(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
