package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	AccountID     uuid.UUID
	SubcategoryID uuid.UUID
	Amount        decimal.Decimal
	Note          string
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TransactionView is a transaction joined with the names it is displayed with.
// Type is derived from the owning category.
type TransactionView struct {
	Transaction
	Type            CategoryType
	AccountName     string
	CategoryID      uuid.UUID
	CategoryName    string
	CategoryColor   string
	SubcategoryName string
}

// MaxAmount is the exclusive upper bound that fits NUMERIC(14,2).
var MaxAmount = decimal.New(1, 12)

// ValidAmount reports whether amount is positive, below MaxAmount and has at
// most two decimals. The sign of a transaction comes from its category, never
// from the input.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThan(MaxAmount) && amount.Round(2).Equal(amount)
}

type TransactionFilter struct {
	AccountID     *uuid.UUID
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Type          *CategoryType
	Year          int
	Month         int
	Page          int
	Limit         int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps Offset from overflowing.
	MaxPage          = math.MaxInt32 / MaxPageLimit
)

// Normalize clamps paging to sane bounds.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
