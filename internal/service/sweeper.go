package service

import (
	"context"
	"log/slog"
	"time"
)

type expiringCache interface {
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

// IdempotencySweeper periodically removes expired idempotency cache entries in
// bounded batches.
type IdempotencySweeper struct {
	cache     expiringCache
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewIdempotencySweeper(cache expiringCache, logger *slog.Logger, interval time.Duration) *IdempotencySweeper {
	return &IdempotencySweeper{
		cache:     cache,
		logger:    logger,
		interval:  interval,
		batchSize: 500,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdempotencySweeper) Start(ctx context.Context) {
	s.logger.Info("idempotency sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("idempotency sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep drains expired entries batch by batch until a short batch comes back.
func (s *IdempotencySweeper) sweep(ctx context.Context) int64 {
	now := s.now()
	var total int64
	for ctx.Err() == nil {
		n, err := s.cache.DeleteExpired(ctx, now, s.batchSize)
		if err != nil {
			s.logger.Error("failed to sweep idempotency cache", "error", err)
			break
		}
		total += n
		if n < int64(s.batchSize) {
			break
		}
	}
	if total > 0 {
		s.logger.Info("idempotency cache swept", "deleted", total)
	}
	return total
}
