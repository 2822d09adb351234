package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// SQLSTATEs worth another attempt. Concurrent claims on one envelope surface
// as lock timeouts once lock_timeout is set on the transaction.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// RetryPolicy bounds how long a contended write keeps trying.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy suits short claim transactions.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		MaxElapsedTime:  5 * time.Second,
	}
}

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	policy  RetryPolicy
	retries *prometheus.CounterVec
	logger  zerolog.Logger
}

// NewRetrier creates a Retrier. retries, labelled by SQLSTATE, may be nil.
func NewRetrier(policy RetryPolicy, retries *prometheus.CounterVec, logger zerolog.Logger) *Retrier {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = DefaultRetryPolicy().MaxRetries
	}
	return &Retrier{policy: policy, retries: retries, logger: logger}
}

// Retry runs operation until it succeeds, fails permanently or the policy is spent.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime

	attempt := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}

		attempt++
		if attempt > r.policy.MaxRetries {
			return backoff.Permanent(err)
		}

		if r.retries != nil {
			r.retries.WithLabelValues(code).Inc()
		}
		r.logger.Warn().
			Err(err).
			Str("sqlstate", code).
			Int("attempt", attempt).
			Msg("contended write, retrying")

		return err
	}, backoff.WithContext(b, ctx))
}

func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return "", false
}
