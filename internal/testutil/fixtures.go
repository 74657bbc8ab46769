package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

const TestPassword = "password123"

func SeedTestUser(t *testing.T, db *sql.DB, email string) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test user %s: %v", email, err)
	}
	return u
}

func SeedTestAccount(t *testing.T, db *sql.DB, userID uuid.UUID, name, initial string) *domain.Account {
	t.Helper()

	balance := decimal.RequireFromString(initial)
	a := &domain.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Type:           domain.AccountTypeBank,
		InitialBalance: balance,
		CurrentBalance: balance,
		Currency:       domain.DefaultCurrency,
		Version:        1,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, user_id, name, type, initial_balance, current_balance, currency, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.Name, a.Type, a.InitialBalance, a.CurrentBalance, a.Currency, a.Version, a.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test account %s: %v", name, err)
	}
	return a
}

func SeedTestCategory(t *testing.T, db *sql.DB, userID uuid.UUID, name string, typ domain.CategoryType) *domain.Category {
	t.Helper()

	c := &domain.Category{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Color:     domain.DefaultCategoryColor,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO categories (id, user_id, name, color, type, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.UserID, c.Name, c.Color, c.Type, c.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed test category %s: %v", name, err)
	}
	return c
}

// SeedTestSubcategory appends a subcategory at the end of its category.
func SeedTestSubcategory(t *testing.T, db *sql.DB, categoryID uuid.UUID, name string) *domain.Subcategory {
	t.Helper()

	s := &domain.Subcategory{ID: uuid.New(), CategoryID: categoryID, Name: name}
	err := db.QueryRow(
		`INSERT INTO subcategories (id, category_id, name, sort_order)
		 SELECT $1, $2, $3, COUNT(*) + 1 FROM subcategories WHERE category_id = $2
		 RETURNING sort_order`,
		s.ID, s.CategoryID, s.Name,
	).Scan(&s.SortOrder)
	if err != nil {
		t.Fatalf("seed test subcategory %s: %v", name, err)
	}
	return s
}

func GetAccountBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT current_balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get account balance %s: %v", accountID, err)
	}
	return balance
}

// ExpectedBalance recomputes initial_balance plus the signed sum of the
// account's transactions.
func ExpectedBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var expected decimal.Decimal
	err := db.QueryRow(
		`SELECT a.initial_balance + COALESCE((
			SELECT SUM(CASE WHEN c.type = 'expense' THEN -t.amount ELSE t.amount END)
			FROM transactions t
			JOIN subcategories s ON s.id = t.subcategory_id
			JOIN categories c ON c.id = s.category_id
			WHERE t.account_id = a.id
		), 0)
		FROM accounts a WHERE a.id = $1`, accountID,
	).Scan(&expected)
	if err != nil {
		t.Fatalf("expected balance %s: %v", accountID, err)
	}
	return expected
}

func CountTransactions(t *testing.T, db *sql.DB, userID uuid.UUID) int {
	t.Helper()

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&count); err != nil {
		t.Fatalf("count transactions for %s: %v", userID, err)
	}
	return count
}

func SortOrders(t *testing.T, db *sql.DB, categoryID uuid.UUID) map[uuid.UUID]int {
	t.Helper()

	rows, err := db.Query(`SELECT id, sort_order FROM subcategories WHERE category_id = $1`, categoryID)
	if err != nil {
		t.Fatalf("sort orders for %s: %v", categoryID, err)
	}
	defer rows.Close()

	orders := map[uuid.UUID]int{}
	for rows.Next() {
		var id uuid.UUID
		var order int
		if err := rows.Scan(&id, &order); err != nil {
			t.Fatalf("scan sort order: %v", err)
		}
		orders[id] = order
	}
	return orders
}
