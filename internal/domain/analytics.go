package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryTotal struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Category   string          `json:"category"`
	Color      string          `json:"color"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
}

type AccountBalance struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Type    AccountType     `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// Summary is the monthly analytics view. It is JSON tagged because it is
// memoized as-is in the cache.
type Summary struct {
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	TotalExpense decimal.Decimal  `json:"total_expense"`
	TotalIncome  decimal.Decimal  `json:"total_income"`
	NetIncome    decimal.Decimal  `json:"net_income"`
	Categories   []CategoryTotal  `json:"categories"`
	Accounts     []AccountBalance `json:"accounts"`
}

func ValidPeriod(year, month int) bool {
	return year >= 1900 && year <= 9999 && month >= 1 && month <= 12
}
