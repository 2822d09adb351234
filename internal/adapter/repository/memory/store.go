// Package memory is an in-process storage backend. A single writer holds the
// store between Begin and Commit/Rollback, which gives every transaction
// serializable isolation. Unique constraints and conditional updates behave
// like their Postgres counterparts.
package memory

import (
	"context"
	"errors"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

var (
	errTxDone    = errors.New("memory: transaction already closed")
	errForeignTx = errors.New("memory: transaction belongs to another store")
	errDuplicate = errors.New("memory: duplicate key")
)

type balanceKey struct {
	userID int64
	asset  string
}

type notificationToken struct {
	refID string
}

// Store holds all tables.
type Store struct {
	sem chan struct{}

	envelopes     map[string]*domain.Envelope
	claims        map[string][]*domain.Claim
	balances      map[balanceKey]*domain.Balance
	entries       []*domain.LedgerEntry
	refunds       map[string]*domain.RefundTicket
	notifications map[string]notificationToken
	outbox        []*domain.OutboxEvent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sem:           make(chan struct{}, 1),
		envelopes:     make(map[string]*domain.Envelope),
		claims:        make(map[string][]*domain.Claim),
		balances:      make(map[balanceKey]*domain.Balance),
		refunds:       make(map[string]*domain.RefundTicket),
		notifications: make(map[string]notificationToken),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

// read runs fn outside of a transaction.
func (s *Store) read(ctx context.Context, fn func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

// Begin implements usecase.TransactionManager. It blocks until no other
// transaction is open or ctx ends.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	return &Tx{store: s}, nil
}

// Tx records undo steps that Rollback replays in reverse.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit keeps the changes and releases the store.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

// Rollback reverts the changes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (s *Store) tx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if t.done {
		return nil, errTxDone
	}
	return t, nil
}

func cloneEnvelope(e *domain.Envelope) *domain.Envelope {
	c := *e
	return &c
}

func cloneClaim(c *domain.Claim) *domain.Claim {
	cp := *c
	return &cp
}

func cloneEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	return &c
}

func cloneTicket(t *domain.RefundTicket) *domain.RefundTicket {
	c := *t
	return &c
}

func cloneEvent(e *domain.OutboxEvent) *domain.OutboxEvent {
	c := *e
	c.Payload = make(map[string]any, len(e.Payload))
	for k, v := range e.Payload {
		c.Payload[k] = v
	}
	return &c
}
