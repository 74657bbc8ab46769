package service

import (
	"context"
	"log/slog"
	"time"
)

type expiryCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// Janitor periodically purges expired cache and idempotency rows.
type Janitor struct {
	targets  map[string]expiryCleaner
	logger   *slog.Logger
	interval time.Duration
}

func NewJanitor(logger *slog.Logger, interval time.Duration) *Janitor {
	return &Janitor{
		targets:  map[string]expiryCleaner{},
		logger:   logger,
		interval: interval,
	}
}

// Register adds a named target. It must be called before Start.
func (j *Janitor) Register(name string, c expiryCleaner) {
	j.targets[name] = c
}

func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("janitor started", "interval", j.interval, "targets", len(j.targets))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	for name, c := range j.targets {
		n, err := c.CleanExpired(ctx)
		if err != nil {
			j.logger.Error("janitor sweep failed", "target", name, "error", err)
			continue
		}
		if n > 0 {
			j.logger.Info("janitor swept expired rows", "target", name, "removed", n)
		}
	}
}
