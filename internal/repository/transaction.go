package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

const transactionViewSelect = `SELECT t.id, t.user_id, t.account_id, t.subcategory_id, t.amount,
	t.note, t.date, t.created_at, t.updated_at,
	c.type, a.name, c.id, c.name, c.color, s.name
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	JOIN subcategories s ON s.id = t.subcategory_id
	JOIN categories c ON c.id = s.category_id`

// LockedTransaction is a transaction read under row lock together with the
// category type that determined its balance effect.
type LockedTransaction struct {
	domain.Transaction
	Type domain.CategoryType
}

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, user_id, account_id, subcategory_id, amount, note, date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.AccountID, t.SubcategoryID, t.Amount, t.Note, t.Date,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*LockedTransaction, error) {
	var lt LockedTransaction
	err := tx.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.account_id, t.subcategory_id, t.amount, t.note, t.date,
			t.created_at, t.updated_at, c.type
		FROM transactions t
		JOIN subcategories s ON s.id = t.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE t.id = $1 AND t.user_id = $2
		FOR UPDATE OF t`, id, userID,
	).Scan(&lt.ID, &lt.UserID, &lt.AccountID, &lt.SubcategoryID, &lt.Amount, &lt.Note, &lt.Date,
		&lt.CreatedAt, &lt.UpdatedAt, &lt.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return &lt, nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions
		SET account_id = $1, subcategory_id = $2, amount = $3, note = $4, date = $5, updated_at = $6
		WHERE id = $7`,
		t.AccountID, t.SubcategoryID, t.Amount, t.Note, t.Date, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
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

func (r *TransactionRepository) GetView(ctx context.Context, userID, id uuid.UUID) (*domain.TransactionView, error) {
	row := r.db.QueryRowContext(ctx, transactionViewSelect+` WHERE t.id = $1 AND t.user_id = $2`, id, userID)
	v, err := scanTransactionView(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetView: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetView: %w", err)
	}
	return v, nil
}

// List returns one page of joined rows matching f and the total match count.
func (r *TransactionRepository) List(ctx context.Context, userID uuid.UUID, f domain.TransactionFilter) ([]domain.TransactionView, int, error) {
	f = f.Normalize()
	where, args := transactionFilterClause(userID, f)

	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t
		JOIN subcategories s ON s.id = t.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	rows, err := r.db.QueryContext(ctx,
		transactionViewSelect+` WHERE `+where+
			fmt.Sprintf(` ORDER BY t.date DESC, t.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	views := []domain.TransactionView{}
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("List: scan: %w", err)
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("List: rows: %w", err)
	}
	return views, total, nil
}

func transactionFilterClause(userID uuid.UUID, f domain.TransactionFilter) (string, []any) {
	conds := []string{"t.user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.AccountID != nil {
		add("t.account_id = $%d", *f.AccountID)
	}
	if f.CategoryID != nil {
		add("c.id = $%d", *f.CategoryID)
	}
	if f.SubcategoryID != nil {
		add("t.subcategory_id = $%d", *f.SubcategoryID)
	}
	if f.Type != nil {
		add("c.type = $%d", string(*f.Type))
	}
	if f.Year > 0 {
		from, to := periodBounds(f.Year, f.Month)
		add("t.date >= $%d", from)
		add("t.date < $%d", to)
	}
	return strings.Join(conds, " AND "), args
}

// periodBounds returns [from, to) for a month, or for the whole year when
// month is zero.
func periodBounds(year, month int) (time.Time, time.Time) {
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

func scanTransactionView(s scanner) (*domain.TransactionView, error) {
	var v domain.TransactionView
	err := s.Scan(
		&v.ID, &v.UserID, &v.AccountID, &v.SubcategoryID, &v.Amount,
		&v.Note, &v.Date, &v.CreatedAt, &v.UpdatedAt,
		&v.Type, &v.AccountName, &v.CategoryID, &v.CategoryName, &v.CategoryColor, &v.SubcategoryName,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
