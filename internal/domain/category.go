package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Signed applies the ledger sign policy: expenses decrease a balance,
// income increases it.
func (t CategoryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == CategoryTypeExpense {
		return amount.Neg()
	}
	return amount
}

const DefaultCategoryColor = "#9E9E9E"

type Category struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Color         string
	Type          CategoryType
	CreatedAt     time.Time
	Subcategories []Subcategory
}

type Subcategory struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Name       string
	SortOrder  int
}
