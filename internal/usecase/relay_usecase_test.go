package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/hongbao/internal/domain"
)

// finishedEnvelope creates an envelope from sender 1 and lets claimants drain it.
// It returns the envelope and its lucky king.
func finishedEnvelope(t *testing.T, h *harness, claimants ...int64) (*domain.Envelope, int64) {
	t.Helper()
	h.fund(t, 1, "USDT", "100")
	env := h.create(t, 1, "USDT", "10", len(claimants))
	for _, u := range claimants {
		require.True(t, h.claim(t, env.ID, u).OK())
	}

	ranking, err := h.rankingUC.Rank(context.Background(), env.ID)
	require.NoError(t, err)
	require.NotNil(t, ranking.LuckyKing)
	return env, ranking.LuckyKing.UserID
}

func TestRelay_LuckyKingCreatesCopy(t *testing.T) {
	h := newHarness(t, 11)
	src, king := finishedEnvelope(t, h, 2, 3, 4)
	h.fund(t, king, "USDT", "50")
	before := h.balance(t, king, "USDT")

	env, err := h.relayUC.Relay(context.Background(), src.ID, king)
	require.NoError(t, err)

	assert.Equal(t, src.ID, env.RelayedFrom)
	assert.Equal(t, king, env.SenderID)
	assert.Equal(t, src.ChatID, env.ChatID)
	assert.Equal(t, src.ShareCount, env.ShareCount)
	assert.True(t, env.TotalAmount.Equal(src.TotalAmount))
	assert.True(t, env.MinUnit.Equal(src.MinUnit))
	assert.True(t, h.balance(t, king, "USDT").Equal(before.Sub(src.TotalAmount)))

	types := h.eventTypes(t)
	assert.Equal(t, domain.EventTypeEnvelopeRelayed, types[len(types)-1])
	h.requireReconciled(t)
}

func TestRelay_NotLuckyKing(t *testing.T) {
	h := newHarness(t, 11)
	src, king := finishedEnvelope(t, h, 2, 3, 4)

	other := int64(2)
	if other == king {
		other = 3
	}
	h.fund(t, other, "USDT", "50")
	before := h.balance(t, other, "USDT")

	_, err := h.relayUC.Relay(context.Background(), src.ID, other)
	require.ErrorIs(t, err, domain.ErrNotLuckyKing)
	assert.True(t, h.balance(t, other, "USDT").Equal(before))
}

func TestRelay_ActiveEnvelopeHasNoKing(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "10")
	env := h.create(t, 1, "USDT", "10", 3)
	h.claim(t, env.ID, 2)

	_, err := h.relayUC.Relay(context.Background(), env.ID, 2)
	require.ErrorIs(t, err, domain.ErrNotLuckyKing)

	ranking, err := h.rankingUC.Rank(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Len(t, ranking.Claims, 1)
	assert.Nil(t, ranking.LuckyKing)
}

func TestRelay_OnlyOnce(t *testing.T) {
	h := newHarness(t, 5)
	src, king := finishedEnvelope(t, h, 2, 3)
	h.fund(t, king, "USDT", "100")

	_, err := h.relayUC.Relay(context.Background(), src.ID, king)
	require.NoError(t, err)
	after := h.balance(t, king, "USDT")

	_, err = h.relayUC.Relay(context.Background(), src.ID, king)
	require.ErrorIs(t, err, domain.ErrAlreadyRelayed)
	assert.True(t, h.balance(t, king, "USDT").Equal(after))
	h.requireReconciled(t)
}

func TestRelay_InsufficientBalance(t *testing.T) {
	h := newHarness(t, 5)
	src, king := finishedEnvelope(t, h, 2, 3)
	before := h.balance(t, king, "USDT")
	require.True(t, before.LessThan(src.TotalAmount))

	_, err := h.relayUC.Relay(context.Background(), src.ID, king)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, h.balance(t, king, "USDT").Equal(before))
}

func TestRelay_ConcurrentKingAndOther(t *testing.T) {
	h := newHarness(t, 21)
	src, king := finishedEnvelope(t, h, 2, 3, 4)

	other := int64(4)
	if other == king {
		other = 3
	}
	h.fund(t, king, "USDT", "20")
	h.fund(t, other, "USDT", "20")
	otherBefore := h.balance(t, other, "USDT")

	var (
		wg                 sync.WaitGroup
		kingErr, otherErr  error
		kingEnv, otherEnvs *domain.Envelope
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		kingEnv, kingErr = h.relayUC.Relay(context.Background(), src.ID, king)
	}()
	go func() {
		defer wg.Done()
		otherEnvs, otherErr = h.relayUC.Relay(context.Background(), src.ID, other)
	}()
	wg.Wait()

	require.NoError(t, kingErr)
	assert.Equal(t, src.ID, kingEnv.RelayedFrom)
	require.ErrorIs(t, otherErr, domain.ErrNotLuckyKing)
	assert.Nil(t, otherEnvs)
	assert.True(t, h.balance(t, other, "USDT").Equal(otherBefore))
	h.requireReconciled(t)
}

func TestRelay_MissingEnvelope(t *testing.T) {
	h := newHarness(t, 1)

	_, err := h.relayUC.Relay(context.Background(), "nope", 1)
	require.ErrorIs(t, err, domain.ErrEnvelopeNotFound)
}
