package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeCash          AccountType = "cash"
	AccountTypeBank          AccountType = "bank"
	AccountTypeCreditCard    AccountType = "credit_card"
	AccountTypeDigitalWallet AccountType = "digital_wallet"
)

func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCreditCard, AccountTypeDigitalWallet:
		return true
	}
	return false
}

const DefaultCurrency = "TWD"

type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Type           AccountType
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	Currency       string
	IsDefault      bool
	Version        int64
	CreatedAt      time.Time
}

// BalanceDrift is an account whose stored balance disagrees with
// initial_balance plus the signed sum of its transactions.
type BalanceDrift struct {
	AccountID uuid.UUID
	Name      string
	Stored    decimal.Decimal
	Expected  decimal.Decimal
}
