package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

func TestBalancesByAmount(t *testing.T) {
	accounts := []domain.Account{
		{Name: "Cash", CurrentBalance: decimal.RequireFromString("20")},
		{Name: "Card", CurrentBalance: decimal.RequireFromString("-300")},
		{Name: "Bank", CurrentBalance: decimal.RequireFromString("4650")},
	}

	got := balancesByAmount(accounts)
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"Bank", "Cash", "Card"}, names)
}

func TestHasDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.False(t, hasDuplicates([]uuid.UUID{a, b}))
	assert.True(t, hasDuplicates([]uuid.UUID{a, b, a}))
	assert.False(t, hasDuplicates(nil))
}
