package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds each transaction attempt
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long a replayable POST response is kept
	IdempotencyKeyTTL = 24 * time.Hour

	// ClosedEnvelopeHintTTL is how long a finished or cancelled envelope is remembered in the cache
	ClosedEnvelopeHintTTL = 6 * time.Hour

	// DefaultEnvelopeTTL is how long an envelope stays claimable before the sweeper refunds it
	DefaultEnvelopeTTL = 24 * time.Hour

	// NotificationMaxAttempts bounds delivery retries of a single notification
	NotificationMaxAttempts = 3
)
