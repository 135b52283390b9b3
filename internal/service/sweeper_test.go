package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCache struct {
	expired int64
	calls   int
	err     error
}

func (f *fakeCache) DeleteExpired(_ context.Context, _ time.Time, limit int) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	n := min(f.expired, int64(limit))
	f.expired -= n
	return n, nil
}

func newTestSweeper(cache expiringCache) *IdempotencySweeper {
	s := NewIdempotencySweeper(cache, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute)
	s.batchSize = 10
	return s
}

func TestSweep_DrainsInBatches(t *testing.T) {
	cache := &fakeCache{expired: 25}

	deleted := newTestSweeper(cache).sweep(context.Background())

	assert.Equal(t, int64(25), deleted)
	assert.Equal(t, 3, cache.calls)
	assert.Zero(t, cache.expired)
}

func TestSweep_ExactBatchNeedsOneMoreCall(t *testing.T) {
	cache := &fakeCache{expired: 10}

	deleted := newTestSweeper(cache).sweep(context.Background())

	assert.Equal(t, int64(10), deleted)
	assert.Equal(t, 2, cache.calls)
}

func TestSweep_StopsOnError(t *testing.T) {
	cache := &fakeCache{expired: 5, err: errors.New("connection reset")}

	deleted := newTestSweeper(cache).sweep(context.Background())

	assert.Zero(t, deleted)
	assert.Equal(t, 1, cache.calls)
}

func TestStart_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		newTestSweeper(&fakeCache{}).Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
