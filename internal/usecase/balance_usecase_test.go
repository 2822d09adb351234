package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
	"github.com/iho/hongbao/internal/usecase/mocks"
)

func issueTicket(t *testing.T, h *harness, ticket *domain.RefundTicket) {
	t.Helper()
	ctx := context.Background()

	tx, err := h.store.Begin(ctx)
	require.NoError(t, err)
	issued, err := h.tokens.IssueRefund(ctx, tx, ticket)
	require.NoError(t, err)
	require.True(t, issued)
	require.NoError(t, tx.Commit(ctx))
}

func TestRefundTicket_AppliesOnce(t *testing.T) {
	h := newHarness(t, 1)
	issueTicket(t, h, &domain.RefundTicket{
		Token:     "refund:test",
		UserID:    9,
		Asset:     "TON",
		Amount:    dec("4.20"),
		RefType:   domain.RefTypeEnvelopeRefund,
		RefID:     "env-x",
		CreatedAt: time.Now(),
	})

	entry, err := h.balanceUC.RefundTicket(context.Background(), "refund:test")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Delta.Equal(dec("4.20")))

	entry, err = h.balanceUC.RefundTicket(context.Background(), "refund:test")
	require.NoError(t, err)
	assert.Nil(t, entry)

	assert.True(t, h.balance(t, 9, "TON").Equal(dec("4.20")))

	ticket, err := h.tokens.GetRefund(context.Background(), "refund:test")
	require.NoError(t, err)
	assert.True(t, ticket.Refunded)
	assert.NotNil(t, ticket.RefundedAt)
	h.requireReconciled(t)
}

func TestRefundTicket_Unknown(t *testing.T) {
	h := newHarness(t, 1)

	_, err := h.balanceUC.RefundTicket(context.Background(), "refund:none")
	require.ErrorIs(t, err, domain.ErrRefundTicketNotFound)
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.AdjustInput
		wantErr error
		want    string
	}{
		{
			name:  "credit",
			input: usecase.AdjustInput{UserID: 1, Asset: "usdt", Amount: dec("5.25")},
			want:  "15.25",
		},
		{
			name:  "debit",
			input: usecase.AdjustInput{UserID: 1, Asset: "USDT", Amount: dec("-2")},
			want:  "8",
		},
		{
			name:    "debit beyond balance",
			input:   usecase.AdjustInput{UserID: 1, Asset: "USDT", Amount: dec("-11")},
			wantErr: domain.ErrInsufficientBalance,
			want:    "10",
		},
		{
			name:    "zero",
			input:   usecase.AdjustInput{UserID: 1, Asset: "USDT", Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
			want:    "10",
		},
		{
			name:    "unknown asset",
			input:   usecase.AdjustInput{UserID: 1, Asset: "BTC", Amount: dec("1")},
			wantErr: domain.ErrValidation,
			want:    "10",
		},
		{
			name:    "too many decimals",
			input:   usecase.AdjustInput{UserID: 1, Asset: "USDT", Amount: dec("0.001")},
			wantErr: domain.ErrValidation,
			want:    "10",
		},
		{
			name:    "invalid user",
			input:   usecase.AdjustInput{UserID: 0, Asset: "USDT", Amount: dec("1")},
			wantErr: domain.ErrValidation,
			want:    "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1)
			h.fund(t, 1, "USDT", "10")

			entry, err := h.balanceUC.Adjust(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.RefTypeAdjustment, entry.RefType)
				assert.True(t, entry.BalanceAfter.Equal(dec(tt.want)))
			}
			assert.True(t, h.balance(t, 1, "USDT").Equal(dec(tt.want)))
			h.requireReconciled(t)
		})
	}
}

func TestGetBalance_UnknownUserIsZero(t *testing.T) {
	h := newHarness(t, 1)

	b, err := h.balanceUC.GetBalance(context.Background(), 404, "POINT")
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	_, err = h.balanceUC.GetBalance(context.Background(), 404, "XYZ")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestListBalancesAndEntries(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "10")
	h.fund(t, 1, "POINT", "7")
	h.fund(t, 1, "USDT", "1")

	balances, err := h.balanceUC.ListBalances(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "POINT", balances[0].Asset)
	assert.Equal(t, "USDT", balances[1].Asset)

	entries, err := h.balanceUC.ListEntries(context.Background(), usecase.ListEntriesInput{UserID: 1, Asset: "usdt"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Delta.Equal(dec("1")))
	assert.True(t, entries[0].BalanceAfter.Equal(dec("11")))

	entries, err = h.balanceUC.ListEntries(context.Background(), usecase.ListEntriesInput{UserID: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBalanceUseCase_StorageErrorsAreClassified(t *testing.T) {
	ctrl := gomock.NewController(t)

	balances := mocks.NewMockBalanceRepository(ctrl)
	balances.EXPECT().ListByUser(gomock.Any(), int64(1)).Return(nil, errors.New("connection reset"))

	uc := usecase.NewBalanceUseCase(nil, balances, nil, nil, nil, nil)

	_, err := uc.ListBalances(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestBalanceUseCase_CommitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	tx := mocks.NewMockTransaction(ctrl)
	tx.EXPECT().Commit(gomock.Any()).Return(errors.New("commit failed"))
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	txManager := mocks.NewMockTransactionManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)

	balances := mocks.NewMockBalanceRepository(ctrl)
	balances.EXPECT().Credit(gomock.Any(), tx, int64(1), "USDT", gomock.Any(), gomock.Any()).Return(dec("1"), nil)

	ledger := mocks.NewMockLedgerRepository(ctrl)
	ledger.EXPECT().Create(gomock.Any(), tx, gomock.Any()).Return(nil)

	uc := usecase.NewBalanceUseCase(txManager, balances, ledger, nil, mocks.NewSequentialIDGenerator("b"), nil)

	_, err := uc.Adjust(context.Background(), usecase.AdjustInput{UserID: 1, Asset: "USDT", Amount: dec("1")})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
