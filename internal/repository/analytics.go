package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

type AnalyticsRepository struct {
	db *sql.DB
}

func NewAnalyticsRepository(db *sql.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// TotalByType sums the user's transactions of one category type dated within
// the month.
func (r *AnalyticsRepository) TotalByType(ctx context.Context, userID uuid.UUID, year, month int, t domain.CategoryType) (decimal.Decimal, error) {
	from, to := periodBounds(year, month)
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN subcategories s ON s.id = t.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE t.user_id = $1 AND c.type = $2 AND t.date >= $3 AND t.date < $4`,
		userID, t, from, to,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("TotalByType: %w", err)
	}
	return total, nil
}

// ExpenseByCategory groups the month's expenses by parent category, largest
// first.
func (r *AnalyticsRepository) ExpenseByCategory(ctx context.Context, userID uuid.UUID, year, month int) ([]domain.CategoryTotal, error) {
	from, to := periodBounds(year, month)
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.color, SUM(t.amount) AS amount, COUNT(*) AS cnt
		FROM transactions t
		JOIN subcategories s ON s.id = t.subcategory_id
		JOIN categories c ON c.id = s.category_id
		WHERE t.user_id = $1 AND c.type = 'expense' AND t.date >= $2 AND t.date < $3
		GROUP BY c.id, c.name, c.color
		ORDER BY amount DESC, c.name`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("ExpenseByCategory: %w", err)
	}
	defer rows.Close()

	totals := []domain.CategoryTotal{}
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Category, &ct.Color, &ct.Amount, &ct.Count); err != nil {
			return nil, fmt.Errorf("ExpenseByCategory: scan: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExpenseByCategory: rows: %w", err)
	}
	return totals, nil
}
