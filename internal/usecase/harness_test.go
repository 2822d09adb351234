package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/hongbao/internal/adapter/repository/memory"
	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
	"github.com/iho/hongbao/internal/usecase/mocks"
)

// harness wires every use case onto one in-memory store.
type harness struct {
	store     *memory.Store
	envelopes *memory.EnvelopeRepository
	claims    *memory.ClaimRepository
	ledger    *memory.LedgerRepository
	tokens    *memory.TokenRepository
	outbox    *memory.OutboxRepository

	balanceUC  *usecase.BalanceUseCase
	envelopeUC *usecase.EnvelopeUseCase
	rankingUC  *usecase.RankingUseCase
	relayUC    *usecase.RelayUseCase
	reconUC    *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T, seed uint64) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		store:     store,
		envelopes: memory.NewEnvelopeRepository(store),
		claims:    memory.NewClaimRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		tokens:    memory.NewTokenRepository(store),
		outbox:    memory.NewOutboxRepository(store),
	}
	balances := memory.NewBalanceRepository(store)
	idGen := mocks.NewSequentialIDGenerator("id")

	h.balanceUC = usecase.NewBalanceUseCase(store, balances, h.ledger, h.tokens, idGen, nil)
	h.envelopeUC = usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		Allocator:    domain.NewSplitAllocator(domain.NewSeededSource(seed)),
		IDGen:        idGen,
	})
	h.rankingUC = usecase.NewRankingUseCase(h.envelopes, h.claims)
	h.relayUC = usecase.NewRelayUseCase(h.rankingUC, h.envelopeUC, nil)
	h.reconUC = usecase.NewReconciliationUseCase(balances, h.ledger, h.envelopes, h.claims, h.tokens, nil)

	return h
}

func (h *harness) fund(t *testing.T, userID int64, asset, amount string) {
	t.Helper()
	_, err := h.balanceUC.Adjust(context.Background(), usecase.AdjustInput{
		UserID: userID,
		Asset:  asset,
		Amount: decimal.RequireFromString(amount),
		Note:   "test funding",
	})
	require.NoError(t, err)
}

func (h *harness) balance(t *testing.T, userID int64, asset string) decimal.Decimal {
	t.Helper()
	b, err := h.balanceUC.GetBalance(context.Background(), userID, asset)
	require.NoError(t, err)
	return b.Amount
}

func (h *harness) create(t *testing.T, sender int64, asset, total string, shares int) *domain.Envelope {
	t.Helper()
	env, err := h.envelopeUC.CreateEnvelope(context.Background(), usecase.CreateEnvelopeInput{
		ChatID:   -100,
		SenderID: sender,
		Asset:    asset,
		Total:    decimal.RequireFromString(total),
		Shares:   shares,
	})
	require.NoError(t, err)
	return env
}

func (h *harness) claim(t *testing.T, envelopeID string, userID int64) *domain.ClaimResult {
	t.Helper()
	r, err := h.envelopeUC.ClaimEnvelope(context.Background(), envelopeID, userID)
	require.NoError(t, err)
	return r
}

// requireReconciled asserts every snapshot equals the sum of its ledger entries.
func (h *harness) requireReconciled(t *testing.T) {
	t.Helper()
	drift, err := h.reconUC.ReconcileAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, drift)
}

func (h *harness) eventTypes(t *testing.T) []string {
	t.Helper()
	events, err := h.outbox.GetUnpublished(context.Background(), 0)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
