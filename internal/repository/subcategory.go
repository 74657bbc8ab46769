package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

// SubcategoryRef is a subcategory resolved together with its owning category.
type SubcategoryRef struct {
	domain.Subcategory
	UserID       uuid.UUID
	CategoryType domain.CategoryType
}

type SubcategoryRepository struct {
	db *sql.DB
}

func NewSubcategoryRepository(db *sql.DB) *SubcategoryRepository {
	return &SubcategoryRepository{db: db}
}

// Resolve returns the subcategory with its category type, only if the
// category belongs to userID.
func (r *SubcategoryRepository) Resolve(ctx context.Context, q Querier, userID, id uuid.UUID) (*SubcategoryRef, error) {
	var ref SubcategoryRef
	err := q.QueryRowContext(ctx,
		`SELECT s.id, s.category_id, s.name, s.sort_order, c.user_id, c.type
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id
		WHERE s.id = $1 AND c.user_id = $2`, id, userID,
	).Scan(&ref.ID, &ref.CategoryID, &ref.Name, &ref.SortOrder, &ref.UserID, &ref.CategoryType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Resolve: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("Resolve: %w", err)
	}
	return &ref, nil
}

// ResolveMany returns the refs found among ids that belong to userID. Missing
// ids are simply absent from the result.
func (r *SubcategoryRepository) ResolveMany(ctx context.Context, q Querier, userID uuid.UUID, ids []uuid.UUID) ([]SubcategoryRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT s.id, s.category_id, s.name, s.sort_order, c.user_id, c.type
		FROM subcategories s
		JOIN categories c ON c.id = s.category_id
		WHERE s.id = ANY($1::uuid[]) AND c.user_id = $2`, pq.Array(uuidStrings(ids)), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ResolveMany: %w", err)
	}
	defer rows.Close()

	var refs []SubcategoryRef
	for rows.Next() {
		var ref SubcategoryRef
		if err := rows.Scan(&ref.ID, &ref.CategoryID, &ref.Name, &ref.SortOrder, &ref.UserID, &ref.CategoryType); err != nil {
			return nil, fmt.Errorf("ResolveMany: scan: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ResolveMany: rows: %w", err)
	}
	return refs, nil
}

func (r *SubcategoryRepository) ListIDsByCategory(ctx context.Context, q Querier, categoryID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM subcategories WHERE category_id = $1 ORDER BY sort_order`, categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListIDsByCategory: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ListIDsByCategory: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListIDsByCategory: rows: %w", err)
	}
	return ids, nil
}

// Create inserts s with sort_order = count(existing siblings) + 1. The caller
// must hold the parent category lock.
func (r *SubcategoryRepository) Create(ctx context.Context, tx *sql.Tx, s *domain.Subcategory) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO subcategories (id, category_id, name, sort_order)
		SELECT $1, $2, $3, COUNT(*) + 1 FROM subcategories WHERE category_id = $2
		RETURNING sort_order`,
		s.ID, s.CategoryID, s.Name,
	).Scan(&s.SortOrder)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *SubcategoryRepository) SetSortOrder(ctx context.Context, tx *sql.Tx, id uuid.UUID, sortOrder int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE subcategories SET sort_order = $1 WHERE id = $2`, sortOrder, id,
	)
	if err != nil {
		return fmt.Errorf("SetSortOrder: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("SetSortOrder: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("SetSortOrder: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *SubcategoryRepository) CountTransactions(ctx context.Context, q Querier, id uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE subcategory_id = $1`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}

// Delete removes the subcategory and closes the gap it leaves in its
// siblings' sort_order.
func (r *SubcategoryRepository) Delete(ctx context.Context, tx *sql.Tx, s *domain.Subcategory) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories WHERE id = $1`, s.ID); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("Delete: %w", domain.ErrHasTransactions)
		}
		return fmt.Errorf("Delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE subcategories SET sort_order = sort_order - 1
		WHERE category_id = $1 AND sort_order > $2`, s.CategoryID, s.SortOrder,
	); err != nil {
		return fmt.Errorf("Delete: compact: %w", err)
	}
	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
