package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

const categoryColumns = `id, user_id, name, color, type, created_at`

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, tx *sql.Tx, c *domain.Category) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Name, c.Color, c.Type, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ListWithSubcategories returns the categories of userID ordered by name, each
// carrying its subcategories in sort order.
func (r *CategoryRepository) ListWithSubcategories(ctx context.Context, userID uuid.UUID) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.name, c.color, c.type, c.created_at,
			s.id, s.name, s.sort_order
		FROM categories c
		LEFT JOIN subcategories s ON s.category_id = c.id
		WHERE c.user_id = $1
		ORDER BY c.name, c.id, s.sort_order`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListWithSubcategories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var (
			c         domain.Category
			subID     uuid.NullUUID
			subName   sql.NullString
			sortOrder sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Type, &c.CreatedAt,
			&subID, &subName, &sortOrder); err != nil {
			return nil, fmt.Errorf("ListWithSubcategories: scan: %w", err)
		}

		if n := len(categories); n == 0 || categories[n-1].ID != c.ID {
			c.Subcategories = []domain.Subcategory{}
			categories = append(categories, c)
		}
		if subID.Valid {
			last := &categories[len(categories)-1]
			last.Subcategories = append(last.Subcategories, domain.Subcategory{
				ID:         subID.UUID,
				CategoryID: c.ID,
				Name:       subName.String,
				SortOrder:  int(sortOrder.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWithSubcategories: rows: %w", err)
	}
	return categories, nil
}

// GetForUpdate locks the category row; subcategory writes serialize on it.
func (r *CategoryRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, userID, id uuid.UUID) (*domain.Category, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
	)
	var c domain.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.Type, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) CountTransactions(ctx context.Context, q Querier, id uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t
		JOIN subcategories s ON s.id = t.subcategory_id
		WHERE s.category_id = $1`, id,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}

// Delete removes the category; its subcategories cascade.
func (r *CategoryRepository) Delete(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("Delete: %w", domain.ErrHasTransactions)
		}
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
