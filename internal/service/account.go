package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
)

type accountRepo interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error
	GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*domain.Account, error)
	Update(ctx context.Context, tx *sql.Tx, a *domain.Account) error
	ClearDefault(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error
	Delete(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) error
	CountTransactions(ctx context.Context, q repository.Querier, id uuid.UUID) (int, error)
}

type AccountService struct {
	accounts accountRepo
	store    cache.Store
	cache    invalidator
	db       *sql.DB
	ttl      time.Duration
}

func NewAccountService(accounts accountRepo, store cache.Store, inv invalidator, db *sql.DB, ttl time.Duration) *AccountService {
	return &AccountService{accounts: accounts, store: store, cache: inv, db: db, ttl: ttl}
}

type AccountInput struct {
	UserID         uuid.UUID
	Name           string
	Type           domain.AccountType
	InitialBalance decimal.Decimal
	Currency       string
	IsDefault      bool
}

func (in *AccountInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.ErrNameRequired
	}
	if !in.Type.IsValid() {
		return domain.ErrInvalidAccountType
	}
	if !in.InitialBalance.Round(2).Equal(in.InitialBalance) {
		return domain.ErrInvalidBalance
	}
	return nil
}

func (s *AccountService) CreateAccount(ctx context.Context, in AccountInput) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	a := &domain.Account{
		ID:             uuid.New(),
		UserID:         in.UserID,
		Name:           in.Name,
		Type:           in.Type,
		InitialBalance: in.InitialBalance,
		CurrentBalance: in.InitialBalance,
		Currency:       currency,
		IsDefault:      in.IsDefault,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if err := s.accounts.ClearDefault(ctx, tx, in.UserID); err != nil {
			return nil, fmt.Errorf("CreateAccount: %w", err)
		}
	}
	if err := s.accounts.Create(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("CreateAccount: commit: %w", err)
	}

	s.cache.Invalidate(ctx, in.UserID, cache.AccountsKey(in.UserID))

	log.Info("account created", "account_id", a.ID, "type", a.Type, "is_default", a.IsDefault)
	return a, nil
}

// ListAccounts returns the default account first, then the rest by name.
func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := cache.Fetch(ctx, s.store, cache.AccountsKey(userID), s.ttl, func(ctx context.Context) ([]domain.Account, error) {
		return s.accounts.ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// AccountUpdate is a partial edit. A nil InitialBalance or IsDefault keeps
// the stored value.
type AccountUpdate struct {
	UserID         uuid.UUID
	ID             uuid.UUID
	Name           string
	Type           domain.AccountType
	InitialBalance *decimal.Decimal
	IsDefault      *bool
}

func (in *AccountUpdate) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return domain.ErrNameRequired
	}
	if !in.Type.IsValid() {
		return domain.ErrInvalidAccountType
	}
	if in.InitialBalance != nil && !in.InitialBalance.Round(2).Equal(*in.InitialBalance) {
		return domain.ErrInvalidBalance
	}
	return nil
}

// UpdateAccount edits the account. A change of initial_balance moves
// current_balance by the same amount so the ledger invariant holds.
func (s *AccountService) UpdateAccount(ctx context.Context, in AccountUpdate) (*domain.Account, error) {
	log := logging.FromContext(ctx)

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	a, err := s.accounts.GetForUpdate(ctx, tx, in.UserID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}

	isDefault := a.IsDefault
	if in.IsDefault != nil {
		isDefault = *in.IsDefault
	}
	if isDefault && !a.IsDefault {
		if err := s.accounts.ClearDefault(ctx, tx, in.UserID); err != nil {
			return nil, fmt.Errorf("UpdateAccount: %w", err)
		}
	}

	initial := a.InitialBalance
	if in.InitialBalance != nil {
		initial = *in.InitialBalance
	}
	shift := initial.Sub(a.InitialBalance)
	a.Name = in.Name
	a.Type = in.Type
	a.InitialBalance = initial
	a.CurrentBalance = a.CurrentBalance.Add(shift)
	a.IsDefault = isDefault
	a.Version++

	if err := s.accounts.Update(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("UpdateAccount: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("UpdateAccount: commit: %w", err)
	}

	s.cache.Invalidate(ctx, in.UserID, cache.AccountsKey(in.UserID))

	log.Info("account updated", "account_id", a.ID, "balance_shift", shift.StringFixed(2))
	return a, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("DeleteAccount: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.accounts.GetForUpdate(ctx, tx, userID, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}

	n, err := s.accounts.CountTransactions(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("DeleteAccount: %d transactions: %w", n, domain.ErrHasTransactions)
	}

	if err := s.accounts.Delete(ctx, tx, userID, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("DeleteAccount: commit: %w", err)
	}

	s.cache.Invalidate(ctx, userID, cache.AccountsKey(userID))

	log.Info("account deleted", "account_id", id)
	return nil
}
