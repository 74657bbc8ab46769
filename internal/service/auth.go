package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/pocket-ledger/internal/auth"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
)

type userRepo interface {
	Create(ctx context.Context, tx *sql.Tx, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type seedAccountRepo interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.Account) error
}

type seedCategoryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, c *domain.Category) error
}

type seedSubcategoryRepo interface {
	Create(ctx context.Context, tx *sql.Tx, s *domain.Subcategory) error
}

type AuthService struct {
	users         userRepo
	accounts      seedAccountRepo
	categories    seedCategoryRepo
	subcategories seedSubcategoryRepo
	tokens        tokenIssuer
	db            *sql.DB
}

func NewAuthService(
	users userRepo,
	accounts seedAccountRepo,
	categories seedCategoryRepo,
	subcategories seedSubcategoryRepo,
	tokens tokenIssuer,
	db *sql.DB,
) *AuthService {
	return &AuthService{
		users:         users,
		accounts:      accounts,
		categories:    categories,
		subcategories: subcategories,
		tokens:        tokens,
		db:            db,
	}
}

type Session struct {
	User  *domain.User
	Token string
}

// Register creates the user together with the starter accounts and
// categories in one unit of work, then signs them in.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*Session, error) {
	log := logging.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("Register: %w", domain.ErrInvalidEmail)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("Register: %w", domain.ErrWeakPassword)
	}
	if name = strings.TrimSpace(name); name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Register: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.users.Create(ctx, tx, u); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	if err := s.seed(ctx, tx, u.ID, u.CreatedAt); err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Register: commit: %w", err)
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("Register: %w", err)
	}

	log.Info("user registered", "user_id", u.ID)
	return &Session{User: u, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, fmt.Errorf("Login: %w", domain.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("Login: %w", err)
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	return &Session{User: u, Token: token}, nil
}

type starterCategory struct {
	name  string
	color string
	typ   domain.CategoryType
}

var (
	starterAccounts = []struct {
		name      string
		typ       domain.AccountType
		isDefault bool
	}{
		{"Cash", domain.AccountTypeCash, true},
		{"Bank", domain.AccountTypeBank, false},
		{"Credit Card", domain.AccountTypeCreditCard, false},
	}

	starterCategories = []starterCategory{
		{"Food", "#FF6B6B", domain.CategoryTypeExpense},
		{"Transport", "#4ECDC4", domain.CategoryTypeExpense},
		{"Shopping", "#FFD93D", domain.CategoryTypeExpense},
		{"Entertainment", "#A78BFA", domain.CategoryTypeExpense},
		{"Salary", "#6BCB77", domain.CategoryTypeIncome},
		{"Bonus", "#4D96FF", domain.CategoryTypeIncome},
	}
)

const starterSubcategory = "Other"

func (s *AuthService) seed(ctx context.Context, tx *sql.Tx, userID uuid.UUID, now time.Time) error {
	for _, sa := range starterAccounts {
		a := &domain.Account{
			ID:             uuid.New(),
			UserID:         userID,
			Name:           sa.name,
			Type:           sa.typ,
			InitialBalance: decimal.Zero,
			CurrentBalance: decimal.Zero,
			Currency:       domain.DefaultCurrency,
			IsDefault:      sa.isDefault,
			Version:        1,
			CreatedAt:      now,
		}
		if err := s.accounts.Create(ctx, tx, a); err != nil {
			return fmt.Errorf("seed: account %s: %w", sa.name, err)
		}
	}

	for _, sc := range starterCategories {
		c := &domain.Category{
			ID:        uuid.New(),
			UserID:    userID,
			Name:      sc.name,
			Color:     sc.color,
			Type:      sc.typ,
			CreatedAt: now,
		}
		if err := s.categories.Create(ctx, tx, c); err != nil {
			return fmt.Errorf("seed: category %s: %w", sc.name, err)
		}
		sub := &domain.Subcategory{ID: uuid.New(), CategoryID: c.ID, Name: starterSubcategory}
		if err := s.subcategories.Create(ctx, tx, sub); err != nil {
			return fmt.Errorf("seed: subcategory of %s: %w", sc.name, err)
		}
	}
	return nil
}
