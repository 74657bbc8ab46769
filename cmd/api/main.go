package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/josh-kwaku/pocket-ledger/internal/amqp"
	"github.com/josh-kwaku/pocket-ledger/internal/auth"
	"github.com/josh-kwaku/pocket-ledger/internal/cache"
	"github.com/josh-kwaku/pocket-ledger/internal/config"
	"github.com/josh-kwaku/pocket-ledger/internal/handler"
	"github.com/josh-kwaku/pocket-ledger/internal/logging"
	"github.com/josh-kwaku/pocket-ledger/internal/middleware"
	"github.com/josh-kwaku/pocket-ledger/internal/repository"
	"github.com/josh-kwaku/pocket-ledger/internal/service"
	"github.com/josh-kwaku/pocket-ledger/internal/service/ledger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("pocket-ledger", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := repository.Migrate(db); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied")
	}

	store := newCacheStore(cfg, db)

	var (
		broker    *amqp.Client
		publisher cache.Publisher
	)
	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, logging.WithComponent(logger, "amqp"))
		if err != nil {
			slog.Error("failed to connect to broker", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		publisher = broker
	}
	invalidator := cache.NewInvalidator(store, publisher)

	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)
	categories := repository.NewCategoryRepository(db)
	subcategories := repository.NewSubcategoryRepository(db)
	transactions := repository.NewTransactionRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry)

	ledgerSvc := ledger.NewService(accounts, subcategories, transactions, invalidator, db)
	accountSvc := service.NewAccountService(accounts, store, invalidator, db, cfg.CacheAccountsTTL)
	categorySvc := service.NewCategoryService(categories, subcategories, db)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, accountSvc, store, cfg.CacheAnalyticsTTL)
	authSvc := service.NewAuthService(users, accounts, categories, subcategories, tokens, db)

	var wg sync.WaitGroup

	janitor := service.NewJanitor(logging.WithComponent(logger, "janitor"), cfg.JanitorInterval)
	janitor.Register("idempotency_cache", idempotency)
	if cleaner, ok := store.(cache.Cleaner); ok {
		janitor.Register("cache", cleaner)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		janitor.Start(ctx)
	}()

	if broker != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := broker.ConsumeInvalidations(ctx, func(ctx context.Context, msg *amqp.InvalidationMessage) error {
				return invalidator.Apply(ctx, msg.Keys)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("invalidation consumer stopped", "error", err)
			}
		}()
	}

	var brokerHealth func() bool
	if broker != nil {
		brokerHealth = broker.IsHealthy
	}

	health := handler.NewHealthHandler(db, brokerHealth)
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(users)
	accountHandler := handler.NewAccountHandler(accountSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	transactionHandler := handler.NewTransactionHandler(ledgerSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)

	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h,
			middleware.Auth(tokens),
			middleware.Idempotency(idempotency, cfg.IdempotencyTTL),
		)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /health/ready", health.Readiness)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/me", protected(userHandler.Me))

	mux.Handle("GET /api/v1/accounts", protected(accountHandler.List))
	mux.Handle("POST /api/v1/accounts", protected(accountHandler.Create))
	mux.Handle("PUT /api/v1/accounts/{id}", protected(accountHandler.Update))
	mux.Handle("DELETE /api/v1/accounts/{id}", protected(accountHandler.Delete))

	mux.Handle("GET /api/v1/categories", protected(categoryHandler.List))
	mux.Handle("POST /api/v1/categories", protected(categoryHandler.Create))
	mux.Handle("DELETE /api/v1/categories/{id}", protected(categoryHandler.Delete))
	mux.Handle("POST /api/v1/subcategories", protected(categoryHandler.CreateSubcategory))
	mux.Handle("PUT /api/v1/subcategories/reorder", protected(categoryHandler.Reorder))
	mux.Handle("DELETE /api/v1/subcategories/{id}", protected(categoryHandler.DeleteSubcategory))

	mux.Handle("GET /api/v1/transactions", protected(transactionHandler.List))
	mux.Handle("POST /api/v1/transactions", protected(transactionHandler.Create))
	mux.Handle("GET /api/v1/transactions/{id}", protected(transactionHandler.Get))
	mux.Handle("PUT /api/v1/transactions/{id}", protected(transactionHandler.Update))
	mux.Handle("DELETE /api/v1/transactions/{id}", protected(transactionHandler.Delete))

	mux.Handle("GET /api/v1/analytics/summary", protected(analyticsHandler.Summary))
	mux.Handle("GET /api/v1/ledger/verify", protected(transactionHandler.Verify))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.Chain(mux, middleware.Tracing, middleware.Logging(logger), middleware.Recovery),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "cache_backend", cfg.CacheBackend, "broker", broker != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	wg.Wait()
	slog.Info("server stopped")
}

func newCacheStore(cfg *config.Config, db *sql.DB) cache.Store {
	switch cfg.CacheBackend {
	case config.CachePostgres:
		return repository.NewCacheRepository(db)
	case config.CacheNone:
		return cache.Noop{}
	default:
		return cache.NewMemory(cfg.CacheMaxEntries)
	}
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}

	var err error
	for i := range 30 {
		var db *sql.DB
		if db, err = repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connectDB: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
