package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// GuardConfig configures a Guarded gateway.
type GuardConfig struct {
	// RatePerSecond paces messages to one target. Zero disables pacing.
	RatePerSecond float64
	Burst         int
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	Logger      zerolog.Logger
}

// Guarded paces sends per target and stops calling a failing transport.
type Guarded struct {
	next    usecase.NotificationGateway
	breaker *gobreaker.CircuitBreaker
	rps     rate.Limit
	burst   int
	logger  zerolog.Logger

	mu       sync.Mutex
	limiters map[domain.Target]*targetLimiter
	now      func() time.Time
}

type targetLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewGuarded(next usecase.NotificationGateway, cfg GuardConfig) *Guarded {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	rps := rate.Inf
	if cfg.RatePerSecond > 0 {
		rps = rate.Limit(cfg.RatePerSecond)
	}

	logger := cfg.Logger
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifier",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// A rejected message says nothing about transport health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrNotificationRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("notification circuit breaker state changed")
		},
	})

	return &Guarded{
		next:     next,
		breaker:  breaker,
		rps:      rps,
		burst:    cfg.Burst,
		logger:   logger,
		limiters: make(map[domain.Target]*targetLimiter),
		now:      time.Now,
	}
}

func (g *Guarded) Send(ctx context.Context, n domain.Notification) error {
	if err := g.limiter(n.Target).Wait(ctx); err != nil {
		return err
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.next.Send(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("notification transport unavailable: %w", err)
	}
	return err
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State {
	return g.breaker.State()
}

func (g *Guarded) limiter(t domain.Target) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[t]
	if !ok {
		l = &targetLimiter{limiter: rate.NewLimiter(g.rps, g.burst)}
		g.limiters[t] = l
	}
	l.lastSeen = g.now()
	return l.limiter
}

// CleanupLimiters drops the pacing state of targets idle for longer than idle.
// idle should exceed the time a drained limiter needs to refill, otherwise a
// dropped target comes back with a fresh burst early.
func (g *Guarded) CleanupLimiters(idle time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-idle)
	removed := 0
	for t, l := range g.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(g.limiters, t)
			removed++
		}
	}
	return removed
}

// RunCleanup calls CleanupLimiters every interval until ctx is done.
func (g *Guarded) RunCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := g.CleanupLimiters(idle); n > 0 {
				g.logger.Debug().Int("removed", n).Msg("pruned idle notification limiters")
			}
		}
	}
}
