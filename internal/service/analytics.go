package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/domain"
)

type analyticsRepo interface {
	TotalByType(ctx context.Context, userID uuid.UUID, year, month int, t domain.CategoryType) (decimal.Decimal, error)
	ExpenseByCategory(ctx context.Context, userID uuid.UUID, year, month int) ([]domain.CategoryTotal, error)
}

type accountLister interface {
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}

type AnalyticsService struct {
	repo     analyticsRepo
	accounts accountLister
	store    cache.Store
	ttl      time.Duration
}

func NewAnalyticsService(repo analyticsRepo, accounts accountLister, store cache.Store, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{repo: repo, accounts: accounts, store: store, ttl: ttl}
}

// monthRollup is the part of a summary that depends only on the month's
// transactions and is memoized per month.
type monthRollup struct {
	TotalExpense decimal.Decimal        `json:"total_expense"`
	TotalIncome  decimal.Decimal        `json:"total_income"`
	Categories   []domain.CategoryTotal `json:"categories"`
}

// Summary aggregates one month. The month rollup and the account list are
// each cached under keys the ledger invalidates on every write.
func (s *AnalyticsService) Summary(ctx context.Context, userID uuid.UUID, year, month int) (*domain.Summary, error) {
	if !domain.ValidPeriod(year, month) {
		return nil, fmt.Errorf("Summary: %w", domain.ErrInvalidPeriod)
	}

	var (
		rollup   monthRollup
		accounts []domain.Account
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rollup, err = cache.Fetch(gctx, s.store, cache.AnalyticsKey(userID, year, month), s.ttl, func(ctx context.Context) (monthRollup, error) {
			return s.computeRollup(ctx, userID, year, month)
		})
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.accounts.ListAccounts(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}

	return &domain.Summary{
		Year:         year,
		Month:        month,
		TotalExpense: rollup.TotalExpense,
		TotalIncome:  rollup.TotalIncome,
		NetIncome:    rollup.TotalIncome.Sub(rollup.TotalExpense),
		Categories:   rollup.Categories,
		Accounts:     balancesByAmount(accounts),
	}, nil
}

func (s *AnalyticsService) computeRollup(ctx context.Context, userID uuid.UUID, year, month int) (monthRollup, error) {
	var r monthRollup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		r.TotalExpense, err = s.repo.TotalByType(gctx, userID, year, month, domain.CategoryTypeExpense)
		return err
	})
	g.Go(func() error {
		var err error
		r.TotalIncome, err = s.repo.TotalByType(gctx, userID, year, month, domain.CategoryTypeIncome)
		return err
	})
	g.Go(func() error {
		var err error
		r.Categories, err = s.repo.ExpenseByCategory(gctx, userID, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return monthRollup{}, fmt.Errorf("computeRollup: %w", err)
	}
	return r, nil
}

func balancesByAmount(accounts []domain.Account) []domain.AccountBalance {
	out := make([]domain.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, domain.AccountBalance{ID: a.ID, Name: a.Name, Type: a.Type, Balance: a.CurrentBalance})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Balance.GreaterThan(out[j].Balance)
	})
	return out
}
