package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

const accountColumns = `id, user_id, name, type, initial_balance, current_balance,
	currency, is_default, version, created_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID returns the account only if it belongs to userID.
func (r *AccountRepository) GetByID(ctx context.Context, q Querier, userID, id uuid.UUID) (*domain.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, id, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		WHERE user_id = $1 ORDER BY is_default DESC, name, created_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.UserID, a.Name, a.Type, a.InitialBalance, a.CurrentBalance,
		a.Currency, a.IsDefault, a.Version, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// GetForUpdate locks the account row for the rest of tx.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET current_balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

// Update writes the editable fields together with the balance, guarded by
// the version read under lock.
func (r *AccountRepository) Update(ctx context.Context, tx *sql.Tx, a *domain.Account) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts
		SET name = $1, type = $2, initial_balance = $3, current_balance = $4,
			is_default = $5, version = $6
		WHERE id = $7 AND version = $8`,
		a.Name, a.Type, a.InitialBalance, a.CurrentBalance, a.IsDefault, a.Version,
		a.ID, a.Version-1,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	return nil
}

// ClearDefault unsets the default flag on every account of userID.
func (r *AccountRepository) ClearDefault(ctx context.Context, tx *sql.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE accounts SET is_default = false WHERE user_id = $1 AND is_default`, userID,
	)
	if err != nil {
		return fmt.Errorf("ClearDefault: %w", err)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("Delete: %w", domain.ErrHasTransactions)
		}
		return fmt.Errorf("Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AccountRepository) CountTransactions(ctx context.Context, q Querier, id uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}

// Drift recomputes every balance of userID from its transactions and returns
// the accounts whose stored balance disagrees.
func (r *AccountRepository) Drift(ctx context.Context, userID uuid.UUID) ([]domain.BalanceDrift, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.name, a.current_balance,
			a.initial_balance + COALESCE(SUM(
				CASE WHEN c.type = 'expense' THEN -t.amount ELSE t.amount END
			), 0) AS expected
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		LEFT JOIN subcategories s ON s.id = t.subcategory_id
		LEFT JOIN categories c ON c.id = s.category_id
		WHERE a.user_id = $1
		GROUP BY a.id, a.name, a.current_balance, a.initial_balance
		HAVING a.current_balance <> a.initial_balance + COALESCE(SUM(
			CASE WHEN c.type = 'expense' THEN -t.amount ELSE t.amount END
		), 0)
		ORDER BY a.name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("Drift: %w", err)
	}
	defer rows.Close()

	drifts := []domain.BalanceDrift{}
	for rows.Next() {
		var d domain.BalanceDrift
		if err := rows.Scan(&d.AccountID, &d.Name, &d.Stored, &d.Expected); err != nil {
			return nil, fmt.Errorf("Drift: scan: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Drift: rows: %w", err)
	}
	return drifts, nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &a.InitialBalance, &a.CurrentBalance,
		&a.Currency, &a.IsDefault, &a.Version, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
