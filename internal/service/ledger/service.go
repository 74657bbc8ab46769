// Package ledger owns transaction writes and the account balance invariant:
// every account's current_balance equals its initial_balance plus the signed
// sum of the transactions that reference it.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
)

type accountRepo interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error
	Drift(ctx context.Context, userID uuid.UUID) ([]domain.BalanceDrift, error)
}

type subcategoryRepo interface {
	Resolve(ctx context.Context, q repository.Querier, userID, id uuid.UUID) (*repository.SubcategoryRef, error)
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*repository.LockedTransaction, error)
	Update(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	GetView(ctx context.Context, userID, id uuid.UUID) (*domain.TransactionView, error)
	List(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) ([]domain.TransactionView, int, error)
}

type invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID, keys ...string)
}

type Service struct {
	accounts      accountRepo
	subcategories subcategoryRepo
	transactions  transactionRepo
	cache         invalidator
	db            *sql.DB
}

func NewService(
	accounts accountRepo,
	subcategories subcategoryRepo,
	transactions transactionRepo,
	cache invalidator,
	db *sql.DB,
) *Service {
	return &Service{
		accounts:      accounts,
		subcategories: subcategories,
		transactions:  transactions,
		cache:         cache,
		db:            db,
	}
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.TransactionView, error) {
	v, err := s.transactions.GetView(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return v, nil
}

// Page is one page of List results.
type Page struct {
	Transactions []domain.TransactionView
	Total        int
	Page         int
	Limit        int
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) (*Page, error) {
	if f.Month != 0 && f.Year == 0 {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidPeriod)
	}
	if f.Year != 0 && !domain.ValidPeriod(f.Year, max(f.Month, 1)) {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidPeriod)
	}
	if f.Type != nil && !f.Type.IsValid() {
		return nil, fmt.Errorf("List: %w", domain.ErrInvalidCategoryType)
	}

	f = f.Normalize()
	views, total, err := s.transactions.List(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return &Page{Transactions: views, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// Verify returns every account whose stored balance disagrees with the
// recomputed one. A healthy ledger returns an empty slice.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID) ([]domain.BalanceDrift, error) {
	drifts, err := s.accounts.Drift(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Verify: %w", err)
	}
	return drifts, nil
}

// unitError keeps domain failures as they are and reports anything else that
// broke a unit of work as a ledger write conflict.
func unitError(err error) error {
	for _, kind := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrInvalidReference, domain.ErrConflict} {
		if errors.Is(err, kind) {
			return err
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrLedgerWrite, err)
}
