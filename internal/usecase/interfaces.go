package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
)

// EnvelopeRepository defines data access for envelopes.
type EnvelopeRepository interface {
	// Create persists a new envelope. A second envelope relayed from the same
	// source fails with domain.ErrAlreadyRelayed.
	Create(ctx context.Context, tx Transaction, envelope *domain.Envelope) error
	GetByID(ctx context.Context, id string) (*domain.Envelope, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Envelope, error)
	// Decrement grants one share of amount if the envelope is still active and
	// has exactly expectedShares left. It returns domain.ErrEnvelopeFinished when
	// the conditional update matched no row.
	Decrement(ctx context.Context, tx Transaction, id string, expectedShares int, amount decimal.Decimal, at time.Time) (*domain.Envelope, error)
	// Cancel flips an active envelope to cancelled and zeroes what is left.
	// It returns domain.ErrEnvelopeNotActive when no row matched.
	Cancel(ctx context.Context, tx Transaction, id string, at time.Time) (*domain.Envelope, error)
	ListByChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Envelope, error)
	ListActiveBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Envelope, error)
}

// ClaimRepository defines data access for claims.
type ClaimRepository interface {
	// Create inserts a claim, returning domain.ErrAlreadyClaimed on a unique violation.
	Create(ctx context.Context, tx Transaction, claim *domain.Claim) error
	Exists(ctx context.Context, tx Transaction, envelopeID string, userID int64) (bool, error)
	ListByEnvelope(ctx context.Context, envelopeID string) ([]*domain.Claim, error)
}

// BalanceRepository defines data access for balance snapshots.
type BalanceRepository interface {
	// Debit subtracts amount only if the balance covers it and returns the new
	// balance, or domain.ErrInsufficientBalance.
	Debit(ctx context.Context, tx Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error)
	// Credit adds amount, creating the snapshot row if needed, and returns the new balance.
	Credit(ctx context.Context, tx Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error)
	Get(ctx context.Context, userID int64, asset string) (*domain.Balance, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Balance, error)
}

// LedgerRepository defines data access for ledger entries.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	ListByUser(ctx context.Context, userID int64, asset string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByRef(ctx context.Context, refType domain.RefType, refID string) ([]*domain.LedgerEntry, error)
	SumByUser(ctx context.Context, userID int64, asset string) (decimal.Decimal, error)
	// FindDrift lists every (user, asset) whose snapshot differs from its entry sum.
	FindDrift(ctx context.Context) ([]domain.BalanceDrift, error)
}

// TokenRepository stores refund tickets and notification tokens.
type TokenRepository interface {
	// IssueRefund stores a ticket; false means a ticket with that token already exists.
	IssueRefund(ctx context.Context, tx Transaction, ticket *domain.RefundTicket) (bool, error)
	// ConsumeRefund atomically flips refunded from false to true. ok is false when
	// the ticket was already refunded.
	ConsumeRefund(ctx context.Context, tx Transaction, token string, at time.Time) (ticket *domain.RefundTicket, ok bool, err error)
	GetRefund(ctx context.Context, token string) (*domain.RefundTicket, error)
	// AcquireNotification records a delivery token; false means it was already taken.
	AcquireNotification(ctx context.Context, token, refID string, at time.Time) (bool, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Values are hints; a miss reads as "" and
// an error is never fatal.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Locker provides a per-key advisory lock used to reduce contention.
type Locker interface {
	// Lock blocks until the key is held or ctx ends.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NotificationGateway delivers messages to the chat transport.
type NotificationGateway interface {
	Send(ctx context.Context, notification domain.Notification) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request failed so the client may retry it.
	Release(ctx context.Context, key string) error
}
