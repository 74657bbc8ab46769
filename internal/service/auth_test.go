package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/pocket-ledger/internal/auth"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
	"github.com/josh-kwaku/pocket-ledger/internal/testutil"
)

func TestAuth_RegisterSeedsAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour)
	svc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewAccountRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewSubcategoryRepository(db),
		tokens,
		db,
	)
	ctx := context.Background()

	session, err := svc.Register(ctx, " New@Test.com ", "long-enough", "")
	require.NoError(t, err)
	assert.Equal(t, "new@test.com", session.User.Email)
	assert.Equal(t, "new", session.User.Name)

	claims, err := tokens.Resolve(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	accounts, err := repository.NewAccountRepository(db).ListByUser(ctx, session.User.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Cash", accounts[0].Name)
	assert.True(t, accounts[0].IsDefault)

	categories, err := repository.NewCategoryRepository(db).ListWithSubcategories(ctx, session.User.ID)
	require.NoError(t, err)
	require.Len(t, categories, 6)
	for _, c := range categories {
		require.Len(t, c.Subcategories, 1, c.Name)
		assert.Equal(t, 1, c.Subcategories[0].SortOrder)
	}

	_, err = svc.Register(ctx, "new@test.com", "long-enough", "Again")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Register(ctx, "short@test.com", "short", "")
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.Register(ctx, "not-an-email", "long-enough", "")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	login, err := svc.Login(ctx, "NEW@test.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "new@test.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@test.com", "long-enough")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
