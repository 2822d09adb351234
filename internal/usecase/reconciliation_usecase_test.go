package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
	"github.com/iho/hongbao/internal/usecase"
	"github.com/iho/hongbao/internal/usecase/mocks"
)

func TestReconciliation_CleanAfterMixedOperations(t *testing.T) {
	h := newHarness(t, 17)
	ctx := context.Background()

	h.fund(t, 1, "USDT", "100")
	h.fund(t, 2, "USDT", "50")
	h.fund(t, 1, "POINT", "1000")

	finished := h.create(t, 1, "USDT", "30", 3)
	for _, u := range []int64{2, 3, 4} {
		require.True(t, h.claim(t, finished.ID, u).OK())
	}

	cancelled := h.create(t, 2, "USDT", "12.34", 5)
	h.claim(t, cancelled.ID, 1)
	_, err := h.envelopeUC.Cancel(ctx, cancelled.ID, 2)
	require.NoError(t, err)

	active := h.create(t, 1, "POINT", "500", 10)
	h.claim(t, active.ID, 9)

	ranking, err := h.rankingUC.Rank(ctx, finished.ID)
	require.NoError(t, err)
	king := ranking.LuckyKing.UserID
	h.fund(t, king, "USDT", "30")
	relayed, err := h.relayUC.Relay(ctx, finished.ID, king)
	require.NoError(t, err)

	report, err := h.reconUC.Report(ctx)
	require.NoError(t, err)
	assert.True(t, report.LedgerConsistent)
	assert.Empty(t, report.Discrepancies)

	for _, id := range []string{finished.ID, cancelled.ID, active.ID, relayed.ID} {
		v, err := h.reconUC.VerifyEnvelope(ctx, id)
		require.NoError(t, err)
		assert.True(t, v.OK(), "%s: %v", id, v.Violations)
	}

	for _, u := range []int64{1, 2, 3, 4, 9} {
		for _, asset := range []string{"USDT", "POINT"} {
			r, err := h.reconUC.ReconcileBalance(ctx, u, asset)
			require.NoError(t, err)
			assert.True(t, r.IsReconciled, "user %d %s", u, asset)
		}
	}
}

func TestReconcileAll_ReportsDrift(t *testing.T) {
	ctrl := gomock.NewController(t)

	ledger := mocks.NewMockLedgerRepository(ctrl)
	ledger.EXPECT().FindDrift(gomock.Any()).Return([]domain.BalanceDrift{
		{UserID: 1, Asset: "USDT", Recorded: dec("10"), Calculated: dec("9.5")},
		{UserID: 2, Asset: "POINT", Recorded: dec("0"), Calculated: dec("3")},
	}, nil)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	uc := usecase.NewReconciliationUseCase(nil, ledger, nil, nil, nil, m)

	report, err := uc.Report(context.Background())
	require.NoError(t, err)
	assert.False(t, report.LedgerConsistent)
	require.Len(t, report.Discrepancies, 2)
	assert.True(t, report.Discrepancies[0].Difference.Equal(dec("0.5")))
	assert.True(t, report.Discrepancies[1].Difference.Equal(dec("-3")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BalanceDrift))
}

func TestReconcileAll_StorageError(t *testing.T) {
	ctrl := gomock.NewController(t)

	ledger := mocks.NewMockLedgerRepository(ctrl)
	ledger.EXPECT().FindDrift(gomock.Any()).Return(nil, errors.New("timeout"))

	uc := usecase.NewReconciliationUseCase(nil, ledger, nil, nil, nil, nil)

	_, err := uc.ReconcileAll(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestVerifyEnvelope_DetectsBrokenConservation(t *testing.T) {
	ctrl := gomock.NewController(t)

	envelopes := mocks.NewMockEnvelopeRepository(ctrl)
	envelopes.EXPECT().GetByID(gomock.Any(), "env-1").Return(&domain.Envelope{
		ID:              "env-1",
		Asset:           "USDT",
		TotalAmount:     dec("10"),
		MinUnit:         dec("0.01"),
		RemainingAmount: dec("0"),
		ShareCount:      2,
		RemainingShares: 0,
		Status:          domain.EnvelopeStatusFinished,
	}, nil)

	claims := mocks.NewMockClaimRepository(ctrl)
	claims.EXPECT().ListByEnvelope(gomock.Any(), "env-1").Return([]*domain.Claim{
		{EnvelopeID: "env-1", UserID: 1, Amount: dec("6"), Seq: 1},
		{EnvelopeID: "env-1", UserID: 2, Amount: dec("3"), Seq: 2},
	}, nil)

	tokens := mocks.NewMockTokenRepository(ctrl)
	tokens.EXPECT().GetRefund(gomock.Any(), domain.RefundTokenForEnvelope("env-1")).Return(nil, domain.ErrRefundTicketNotFound)

	ledger := mocks.NewMockLedgerRepository(ctrl)
	ledger.EXPECT().ListByRef(gomock.Any(), domain.RefTypeEnvelopeGrab, "env-1").Return([]*domain.LedgerEntry{
		{Delta: dec("6")},
		{Delta: dec("3")},
	}, nil)

	uc := usecase.NewReconciliationUseCase(nil, ledger, envelopes, claims, tokens, nil)

	v, err := uc.VerifyEnvelope(context.Background(), "env-1")
	require.NoError(t, err)
	assert.False(t, v.OK())
	require.Len(t, v.Violations, 1)
	assert.Contains(t, v.Violations[0], "!= total 10")
}

func TestVerifyEnvelope_NotFound(t *testing.T) {
	h := newHarness(t, 1)

	_, err := h.reconUC.VerifyEnvelope(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrEnvelopeNotFound)
}
