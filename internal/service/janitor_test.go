package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCleaner struct {
	calls   atomic.Int32
	removed int64
	err     error
}

func (c *countingCleaner) CleanExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return c.removed, c.err
}

func TestJanitor_SweepContinuesPastFailures(t *testing.T) {
	j := NewJanitor(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	ok := &countingCleaner{removed: 3}
	broken := &countingCleaner{err: errors.New("db down")}
	j.Register("cache", ok)
	j.Register("idempotency", broken)

	j.sweep(context.Background())

	assert.Equal(t, int32(1), ok.calls.Load())
	assert.Equal(t, int32(1), broken.calls.Load())
}

func TestJanitor_StartStopsOnCancel(t *testing.T) {
	j := NewJanitor(slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Millisecond)
	c := &countingCleaner{}
	j.Register("cache", c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
