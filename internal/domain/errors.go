package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them so callers
// can branch on the kind with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrConflict         = errors.New("conflict")
)

var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be greater than zero, below 1000000000000 and have at most two decimals", ErrValidation)
	ErrInvalidDate         = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidAccountType  = fmt.Errorf("%w: invalid account type", ErrValidation)
	ErrInvalidCategoryType = fmt.Errorf("%w: category type must be income or expense", ErrValidation)
	ErrInvalidPeriod       = fmt.Errorf("%w: invalid year or month", ErrValidation)
	ErrNameRequired        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrAccountNotOwned     = fmt.Errorf("%w: account does not belong to user", ErrValidation)
	ErrSubcategoryNotOwned = fmt.Errorf("%w: subcategory does not belong to user", ErrValidation)
	ErrInvalidReorder      = fmt.Errorf("%w: reorder list must name every subcategory of one category exactly once", ErrValidation)
	ErrWeakPassword        = fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidBalance      = fmt.Errorf("%w: balance must have at most two decimals", ErrValidation)

	ErrUnknownSubcategory = fmt.Errorf("%w: subcategory does not resolve to a category", ErrInvalidReference)

	ErrHasTransactions = fmt.Errorf("%w: has transactions", ErrConflict)
	ErrVersionConflict = fmt.Errorf("%w: optimistic lock conflict", ErrConflict)
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrLedgerWrite     = fmt.Errorf("%w: ledger write failed", ErrConflict)

	ErrInvalidCredentials = errors.New("invalid email or password")
)
