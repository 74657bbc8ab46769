package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

type CreateRequest struct {
	UserID        uuid.UUID
	AccountID     uuid.UUID
	SubcategoryID uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Note          string
}

type UpdateRequest struct {
	UserID        uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	SubcategoryID uuid.UUID
	Amount        decimal.Decimal
	Date          time.Time
	Note          string
}

func validateEntry(amount decimal.Decimal, date time.Time) error {
	if !domain.ValidAmount(amount) {
		return domain.ErrInvalidAmount
	}
	if date.IsZero() {
		return domain.ErrInvalidDate
	}
	return nil
}

// dateOnly drops the clock so the stored DATE and the cache month agree.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(req.Amount, req.Date); err != nil {
		return nil, fmt.Errorf("Create: %w", err)
	}

	t, err := s.executeCreate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Create: %w", unitError(err))
	}

	s.cache.Invalidate(ctx, req.UserID, cache.LedgerKeys(req.UserID, t.Date)...)

	log.Info("transaction created",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"subcategory_id", t.SubcategoryID,
		"amount", t.Amount.StringFixed(2),
	)
	return t, nil
}

func (s *Service) executeCreate(ctx context.Context, req CreateRequest) (*domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeCreate: begin tx: %w", err)
	}
	defer tx.Rollback()

	ref, err := s.subcategories.Resolve(ctx, tx, req.UserID, req.SubcategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("executeCreate: %w", domain.ErrSubcategoryNotOwned)
		}
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.UserID, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	now := time.Now().UTC()
	t := &domain.Transaction{
		ID:            uuid.New(),
		UserID:        req.UserID,
		AccountID:     req.AccountID,
		SubcategoryID: req.SubcategoryID,
		Amount:        req.Amount,
		Note:          strings.TrimSpace(req.Note),
		Date:          dateOnly(req.Date),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("executeCreate: insert: %w", err)
	}

	deltas := map[uuid.UUID]decimal.Decimal{req.AccountID: ref.CategoryType.Signed(req.Amount)}
	if err := applyDeltas(ctx, tx, s.accounts, locked, deltas); err != nil {
		return nil, fmt.Errorf("executeCreate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeCreate: commit: %w", err)
	}
	return t, nil
}

// Update reverses the old balance effect and applies the new one, possibly
// on a different account, in a single unit of work.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	if err := validateEntry(req.Amount, req.Date); err != nil {
		return nil, fmt.Errorf("Update: %w", err)
	}

	t, oldDate, err := s.executeUpdate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Update: %w", unitError(err))
	}

	s.cache.Invalidate(ctx, req.UserID, cache.LedgerKeys(req.UserID, oldDate, t.Date)...)

	log.Info("transaction updated",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"subcategory_id", t.SubcategoryID,
		"amount", t.Amount.StringFixed(2),
	)
	return t, nil
}

func (s *Service) executeUpdate(ctx context.Context, req UpdateRequest) (*domain.Transaction, time.Time, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: begin tx: %w", err)
	}
	defer tx.Rollback()

	old, err := s.transactions.GetForUpdate(ctx, tx, req.UserID, req.TransactionID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", err)
	}

	ref, err := s.subcategories.Resolve(ctx, tx, req.UserID, req.SubcategoryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", domain.ErrUnknownSubcategory)
		}
		return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", err)
	}

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, req.UserID, old.AccountID, req.AccountID)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", err)
	}

	t := old.Transaction
	t.AccountID = req.AccountID
	t.SubcategoryID = req.SubcategoryID
	t.Amount = req.Amount
	t.Date = dateOnly(req.Date)
	t.Note = strings.TrimSpace(req.Note)
	t.UpdatedAt = time.Now().UTC()

	if err := s.transactions.Update(ctx, tx, &t); err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", err)
	}

	deltas := transitionDeltas(
		old.AccountID, old.Type.Signed(old.Amount),
		req.AccountID, ref.CategoryType.Signed(req.Amount),
	)
	if err := applyDeltas(ctx, tx, s.accounts, locked, deltas); err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, time.Time{}, fmt.Errorf("executeUpdate: commit: %w", err)
	}
	return &t, old.Date, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	log := logging.FromContext(ctx)

	old, err := s.executeDelete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", unitError(err))
	}

	s.cache.Invalidate(ctx, userID, cache.LedgerKeys(userID, old.Date)...)

	log.Info("transaction deleted",
		"transaction_id", id,
		"account_id", old.AccountID,
		"amount", old.Amount.StringFixed(2),
	)
	return nil
}

func (s *Service) executeDelete(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executeDelete: begin tx: %w", err)
	}
	defer tx.Rollback()

	old, err := s.transactions.GetForUpdate(ctx, tx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("executeDelete: %w", err)
	}

	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, userID, old.AccountID)
	if err != nil {
		return nil, fmt.Errorf("executeDelete: %w", err)
	}

	if err := s.transactions.Delete(ctx, tx, id); err != nil {
		return nil, fmt.Errorf("executeDelete: %w", err)
	}

	deltas := map[uuid.UUID]decimal.Decimal{old.AccountID: old.Type.Signed(old.Amount).Neg()}
	if err := applyDeltas(ctx, tx, s.accounts, locked, deltas); err != nil {
		return nil, fmt.Errorf("executeDelete: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executeDelete: commit: %w", err)
	}
	return &old.Transaction, nil
}
