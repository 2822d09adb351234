package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/hongbao/internal/domain"
)

func newEnvelope(id string) *domain.Envelope {
	return &domain.Envelope{
		ID:              id,
		ChatID:          1,
		SenderID:        1,
		Asset:           "USDT",
		TotalAmount:     decimal.NewFromInt(10),
		MinUnit:         decimal.New(1, -2),
		RemainingAmount: decimal.NewFromInt(10),
		ShareCount:      2,
		RemainingShares: 2,
		Status:          domain.EnvelopeStatusActive,
		Version:         1,
		CreatedAt:       time.Now(),
	}
}

func TestRollbackUndoesEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	envelopes := NewEnvelopeRepository(s)
	balances := NewBalanceRepository(s)
	ledger := NewLedgerRepository(s)
	outbox := NewOutboxRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, envelopes.Create(ctx, tx, newEnvelope("e1")))
	_, err = balances.Credit(ctx, tx, 1, "USDT", decimal.NewFromInt(5), time.Now())
	require.NoError(t, err)
	require.NoError(t, ledger.Create(ctx, tx, &domain.LedgerEntry{ID: "l1", UserID: 1, Asset: "USDT", Delta: decimal.NewFromInt(5)}))
	require.NoError(t, outbox.Create(ctx, tx, &domain.OutboxEvent{ID: "o1"}))
	require.NoError(t, tx.Rollback(ctx))

	_, err = envelopes.GetByID(ctx, "e1")
	assert.ErrorIs(t, err, domain.ErrEnvelopeNotFound)

	b, err := balances.Get(ctx, 1, "USDT")
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	sum, err := ledger.SumByUser(ctx, 1, "USDT")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	events, err := outbox.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCommitThenRollbackIsNoop(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	balances := NewBalanceRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = balances.Credit(ctx, tx, 1, "TON", decimal.NewFromInt(3), time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))
	assert.ErrorIs(t, tx.Commit(ctx), errTxDone)

	b, err := balances.Get(ctx, 1, "TON")
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(3)))

	_, err = balances.Credit(ctx, tx, 1, "TON", decimal.NewFromInt(1), time.Now())
	assert.ErrorIs(t, err, errTxDone)
}

func TestBeginHonoursContext(t *testing.T) {
	s := NewStore()

	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = s.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDebitRequiresFunds(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	balances := NewBalanceRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = balances.Debit(ctx, tx, 1, "USDT", decimal.NewFromInt(1), time.Now())
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = balances.Credit(ctx, tx, 1, "USDT", decimal.NewFromInt(2), time.Now())
	require.NoError(t, err)

	after, err := balances.Debit(ctx, tx, 1, "USDT", decimal.NewFromInt(2), time.Now())
	require.NoError(t, err)
	assert.True(t, after.IsZero())
}

func TestDecrementIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	envelopes := NewEnvelopeRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	require.NoError(t, envelopes.Create(ctx, tx, newEnvelope("e1")))

	_, err = envelopes.Decrement(ctx, tx, "e1", 1, decimal.NewFromInt(4), time.Now())
	require.ErrorIs(t, err, domain.ErrEnvelopeFinished)

	env, err := envelopes.Decrement(ctx, tx, "e1", 2, decimal.NewFromInt(4), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, env.RemainingShares)

	env, err = envelopes.Decrement(ctx, tx, "e1", 1, decimal.NewFromInt(6), time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeStatusFinished, env.Status)
	assert.NotNil(t, env.FinishedAt)

	_, err = envelopes.Decrement(ctx, tx, "e1", 0, decimal.NewFromInt(1), time.Now())
	require.ErrorIs(t, err, domain.ErrEnvelopeFinished)

	_, err = envelopes.Cancel(ctx, tx, "e1", time.Now())
	require.ErrorIs(t, err, domain.ErrEnvelopeNotActive)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	envelopes := NewEnvelopeRepository(s)
	claims := NewClaimRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	first := newEnvelope("r1")
	first.RelayedFrom = "src"
	require.NoError(t, envelopes.Create(ctx, tx, first))

	second := newEnvelope("r2")
	second.RelayedFrom = "src"
	require.ErrorIs(t, envelopes.Create(ctx, tx, second), domain.ErrAlreadyRelayed)
	require.ErrorIs(t, envelopes.Create(ctx, tx, newEnvelope("r1")), errDuplicate)

	require.NoError(t, claims.Create(ctx, tx, &domain.Claim{EnvelopeID: "r1", UserID: 5, Seq: 1}))
	require.ErrorIs(t, claims.Create(ctx, tx, &domain.Claim{EnvelopeID: "r1", UserID: 5, Seq: 2}), domain.ErrAlreadyClaimed)

	exists, err := claims.Exists(ctx, tx, "r1", 5)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRefundTokens(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	tokens := NewTokenRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	ticket := &domain.RefundTicket{Token: "t1", UserID: 1, Asset: "USDT", Amount: decimal.NewFromInt(1)}
	ok, err := tokens.IssueRefund(ctx, tx, ticket)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tokens.IssueRefund(ctx, tx, ticket)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = tokens.ConsumeRefund(ctx, tx, "t1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = tokens.ConsumeRefund(ctx, tx, "t1", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = tokens.ConsumeRefund(ctx, tx, "missing", time.Now())
	require.ErrorIs(t, err, domain.ErrRefundTicketNotFound)
	require.NoError(t, tx.Commit(ctx))

	acquired, err := tokens.AcquireNotification(ctx, "notify:e:0", "env", time.Now())
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = tokens.AcquireNotification(ctx, "notify:e:0", "env", time.Now())
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestFindDrift(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	ledger := NewLedgerRepository(s)
	balances := NewBalanceRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = balances.Credit(ctx, tx, 1, "USDT", decimal.NewFromInt(5), time.Now())
	require.NoError(t, err)
	require.NoError(t, ledger.Create(ctx, tx, &domain.LedgerEntry{UserID: 1, Asset: "USDT", Delta: decimal.NewFromInt(5)}))
	require.NoError(t, ledger.Create(ctx, tx, &domain.LedgerEntry{UserID: 2, Asset: "TON", Delta: decimal.NewFromInt(1)}))
	require.NoError(t, tx.Commit(ctx))

	drift, err := ledger.FindDrift(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, int64(2), drift[0].UserID)
	assert.True(t, drift[0].Recorded.IsZero())
	assert.True(t, drift[0].Calculated.Equal(decimal.NewFromInt(1)))
}

func TestOutboxLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	outbox := NewOutboxRepository(s)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, outbox.Create(ctx, tx, &domain.OutboxEvent{ID: id, Payload: map[string]any{"k": id}}))
	}
	require.NoError(t, tx.Commit(ctx))

	events, err := outbox.GetUnpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].ID)

	published := time.Now().Add(-time.Hour)
	require.NoError(t, outbox.MarkPublished(ctx, "a", published))

	events, err = outbox.GetUnpublished(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	require.NoError(t, outbox.DeletePublished(ctx, time.Now()))
	assert.Len(t, s.outbox, 2)
}
