// Package sweeper periodically refunds envelopes that outlived their TTL.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Expirer cancels stale envelopes. It is satisfied by *usecase.EnvelopeUseCase.
type Expirer interface {
	ExpireStale(ctx context.Context, now time.Time, limit int) (int, error)
}

// Config for Sweeper.
type Config struct {
	Expirer   Expirer
	Logger    zerolog.Logger
	Interval  time.Duration
	BatchSize int
}

// Sweeper runs ExpireStale on a ticker.
type Sweeper struct {
	expirer   Expirer
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func New(cfg Config) *Sweeper {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}

	return &Sweeper{
		expirer:   cfg.Expirer,
		logger:    cfg.Logger.With().Str("component", "sweeper").Logger(),
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start sweeps until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("envelope sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("envelope sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep drains full batches so a backlog clears within one tick.
func (s *Sweeper) sweep(ctx context.Context) int {
	total := 0
	for ctx.Err() == nil {
		n, err := s.expirer.ExpireStale(ctx, s.now(), s.batchSize)
		total += n
		if err != nil {
			s.logger.Error().Err(err).Msg("expire stale envelopes")
			break
		}
		if n < s.batchSize {
			break
		}
	}

	if total > 0 {
		s.logger.Info().Int("expired", total).Msg("refunded stale envelopes")
	}
	return total
}
