package usecase_test

import (
	"context"
	"errors"
	"sync"
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

func TestCreateEnvelope_DebitsSender(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "100")

	env := h.create(t, 1, "USDT", "10.50", 5)

	assert.Equal(t, domain.EnvelopeStatusActive, env.Status)
	assert.True(t, env.RemainingAmount.Equal(dec("10.50")))
	assert.Equal(t, 5, env.RemainingShares)
	assert.True(t, env.MinUnit.Equal(dec("0.01")))
	assert.True(t, h.balance(t, 1, "USDT").Equal(dec("89.50")))

	sends, err := h.ledger.ListByRef(context.Background(), domain.RefTypeEnvelopeSend, env.ID)
	require.NoError(t, err)
	require.Len(t, sends, 1)
	assert.True(t, sends[0].Delta.Equal(dec("-10.50")))
	assert.True(t, sends[0].BalanceAfter.Equal(dec("89.50")))

	assert.Equal(t, []string{domain.EventTypeEnvelopeCreated}, h.eventTypes(t))
	h.requireReconciled(t)
}

func TestCreateEnvelope_InsufficientBalance(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "5")

	_, err := h.envelopeUC.CreateEnvelope(context.Background(), usecase.CreateEnvelopeInput{
		ChatID:   -100,
		SenderID: 1,
		Asset:    "USDT",
		Total:    dec("10"),
		Shares:   2,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.True(t, h.balance(t, 1, "USDT").Equal(dec("5")))
	assert.Empty(t, h.eventTypes(t))

	envs, err := h.envelopeUC.ListByChat(context.Background(), -100, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
	h.requireReconciled(t)
}

func TestCreateEnvelope_AllocationInfeasibleLeavesBalance(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "10")

	minUnit := dec("0.50")
	_, err := h.envelopeUC.CreateEnvelope(context.Background(), usecase.CreateEnvelopeInput{
		ChatID:   -100,
		SenderID: 1,
		Asset:    "USDT",
		Total:    dec("1.00"),
		Shares:   5,
		MinUnit:  &minUnit,
	})

	require.ErrorIs(t, err, domain.ErrAllocationInfeasible)
	assert.True(t, h.balance(t, 1, "USDT").Equal(dec("10")))
}

func TestCreateEnvelope_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.CreateEnvelopeInput
	}{
		{
			name:  "missing chat",
			input: usecase.CreateEnvelopeInput{SenderID: 1, Asset: "USDT", Total: dec("1"), Shares: 1},
		},
		{
			name:  "missing sender",
			input: usecase.CreateEnvelopeInput{ChatID: 1, Asset: "USDT", Total: dec("1"), Shares: 1},
		},
		{
			name:  "unknown asset",
			input: usecase.CreateEnvelopeInput{ChatID: 1, SenderID: 1, Asset: "DOGE", Total: dec("1"), Shares: 1},
		},
		{
			name:  "too many shares",
			input: usecase.CreateEnvelopeInput{ChatID: 1, SenderID: 1, Asset: "USDT", Total: dec("1000"), Shares: 101},
		},
		{
			name:  "fractional points",
			input: usecase.CreateEnvelopeInput{ChatID: 1, SenderID: 1, Asset: "POINT", Total: dec("2.5"), Shares: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 1)
			h.fund(t, 1, "USDT", "10000")

			_, err := h.envelopeUC.CreateEnvelope(context.Background(), tt.input)
			require.ErrorIs(t, err, domain.ErrValidation)
			assert.True(t, h.balance(t, 1, "USDT").Equal(dec("10000")))
		})
	}
}

func TestClaimEnvelope_ThreePointsThreeShares(t *testing.T) {
	h := newHarness(t, 7)
	h.fund(t, 1, "POINT", "3")
	env := h.create(t, 1, "POINT", "3", 3)

	sum := decimal.Zero
	for i, user := range []int64{10, 11, 12} {
		r := h.claim(t, env.ID, user)
		require.Equal(t, domain.ClaimOK, r.Outcome)
		assert.Equal(t, i+1, r.Seq)
		assert.Equal(t, i == 2, r.IsLast)
		sum = sum.Add(r.Amount)
	}
	assert.True(t, sum.Equal(dec("3")))

	r := h.claim(t, env.ID, 13)
	assert.Equal(t, domain.ClaimFinished, r.Outcome)
	assert.ErrorIs(t, r.Err(), domain.ErrEnvelopeFinished)

	ranking, err := h.rankingUC.Rank(context.Background(), env.ID)
	require.NoError(t, err)
	require.Len(t, ranking.Claims, 3)
	for i := 1; i < len(ranking.Claims); i++ {
		assert.False(t, ranking.Claims[i].Amount.GreaterThan(ranking.Claims[i-1].Amount))
	}
	require.NotNil(t, ranking.LuckyKing)
	assert.Equal(t, ranking.Claims[0].UserID, ranking.LuckyKing.UserID)

	assert.Equal(t, []string{
		domain.EventTypeEnvelopeCreated,
		domain.EventTypeEnvelopeClaimed,
		domain.EventTypeEnvelopeClaimed,
		domain.EventTypeEnvelopeClaimed,
		domain.EventTypeEnvelopeFinished,
	}, h.eventTypes(t))
	h.requireReconciled(t)
}

func TestClaimEnvelope_SingleShareTakesAll(t *testing.T) {
	for seed := uint64(0); seed < 5; seed++ {
		h := newHarness(t, seed)
		h.fund(t, 1, "USDT", "50")
		env := h.create(t, 1, "USDT", "12.34", 1)

		r := h.claim(t, env.ID, 2)
		require.Equal(t, domain.ClaimOK, r.Outcome)
		assert.True(t, r.Amount.Equal(dec("12.34")))
		assert.True(t, r.IsLast)
		assert.True(t, h.balance(t, 2, "USDT").Equal(dec("12.34")))
	}
}

func TestClaimEnvelope_AlreadyClaimed(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "10")
	env := h.create(t, 1, "USDT", "10", 3)

	first := h.claim(t, env.ID, 2)
	require.True(t, first.OK())

	second := h.claim(t, env.ID, 2)
	assert.Equal(t, domain.ClaimAlreadyClaimed, second.Outcome)
	assert.True(t, h.balance(t, 2, "USDT").Equal(first.Amount))
	h.requireReconciled(t)
}

func TestClaimEnvelope_NotFound(t *testing.T) {
	h := newHarness(t, 1)

	r := h.claim(t, "missing", 2)
	assert.Equal(t, domain.ClaimNotFound, r.Outcome)
}

func TestClaimEnvelope_InvalidInput(t *testing.T) {
	h := newHarness(t, 1)

	_, err := h.envelopeUC.ClaimEnvelope(context.Background(), "", 2)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.envelopeUC.ClaimEnvelope(context.Background(), "env", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClaimEnvelope_ConcurrentDistinctUsers(t *testing.T) {
	const (
		users  = 40
		shares = 9
	)

	h := newHarness(t, 42)
	h.fund(t, 1, "USDT", "100")
	env := h.create(t, 1, "USDT", "77.77", shares)

	results := make([]*domain.ClaimResult, users)
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := h.envelopeUC.ClaimEnvelope(context.Background(), env.ID, int64(100+i))
			if err != nil {
				t.Errorf("claim %d: %v", i, err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	ok, finished, last := 0, 0, 0
	sum := decimal.Zero
	for _, r := range results {
		require.NotNil(t, r)
		switch r.Outcome {
		case domain.ClaimOK:
			ok++
			sum = sum.Add(r.Amount)
			if r.IsLast {
				last++
			}
		case domain.ClaimFinished:
			finished++
		default:
			t.Fatalf("unexpected outcome %s", r.Outcome)
		}
	}

	assert.Equal(t, shares, ok)
	assert.Equal(t, users-shares, finished)
	assert.Equal(t, 1, last)
	assert.True(t, sum.Equal(dec("77.77")), "sum %s", sum)

	v, err := h.reconUC.VerifyEnvelope(context.Background(), env.ID)
	require.NoError(t, err)
	assert.True(t, v.OK(), "violations: %v", v.Violations)
	h.requireReconciled(t)
}

func TestClaimEnvelope_ConcurrentSameUser(t *testing.T) {
	for round := 0; round < 10; round++ {
		h := newHarness(t, uint64(round))
		h.fund(t, 1, "USDT", "10")
		env := h.create(t, 1, "USDT", "10", 5)

		results := make(chan domain.ClaimOutcome, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := h.envelopeUC.ClaimEnvelope(context.Background(), env.ID, 7)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				results <- r.Outcome
			}()
		}
		wg.Wait()
		close(results)

		counts := map[domain.ClaimOutcome]int{}
		for outcome := range results {
			counts[outcome]++
		}
		assert.Equal(t, 1, counts[domain.ClaimOK])
		assert.Equal(t, 1, counts[domain.ClaimAlreadyClaimed])
	}
}

func TestClaimEnvelope_ConcurrentSameUserOnLastShare(t *testing.T) {
	for round := 0; round < 10; round++ {
		h := newHarness(t, uint64(round))
		h.fund(t, 1, "USDT", "1")
		env := h.create(t, 1, "USDT", "1", 1)

		results := make(chan domain.ClaimOutcome, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r, err := h.envelopeUC.ClaimEnvelope(context.Background(), env.ID, 7)
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				results <- r.Outcome
			}()
		}
		wg.Wait()
		close(results)

		counts := map[domain.ClaimOutcome]int{}
		for outcome := range results {
			counts[outcome]++
		}
		assert.Equal(t, 1, counts[domain.ClaimOK], "round %d", round)
		assert.Equal(t, 1, counts[domain.ClaimAlreadyClaimed], "round %d", round)
	}
}

func TestClaimEnvelope_ReclaimAfterFinished(t *testing.T) {
	h := newHarness(t, 3)
	h.fund(t, 1, "POINT", "10")
	env := h.create(t, 1, "POINT", "10", 2)

	require.True(t, h.claim(t, env.ID, 5).OK())
	last := h.claim(t, env.ID, 6)
	require.True(t, last.IsLast)

	assert.Equal(t, domain.ClaimAlreadyClaimed, h.claim(t, env.ID, 6).Outcome)
	assert.Equal(t, domain.ClaimAlreadyClaimed, h.claim(t, env.ID, 5).Outcome)
	assert.Equal(t, domain.ClaimFinished, h.claim(t, env.ID, 8).Outcome)
}

// mapCache is a Cache that never expires entries.
type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache { return &mapCache{data: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (c *mapCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func TestClaimEnvelope_ReclaimAfterFinishedWithClosedHint(t *testing.T) {
	h := newHarness(t, 4)
	h.fund(t, 1, "POINT", "10")
	env := h.create(t, 1, "POINT", "10", 1)

	cache := newMapCache()
	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    h.store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		IDGen:        mocks.NewSequentialIDGenerator("c"),
		Cache:        cache,
	})
	ctx := context.Background()

	r, err := uc.ClaimEnvelope(ctx, env.ID, 6)
	require.NoError(t, err)
	require.True(t, r.IsLast)

	hint, err := cache.Get(ctx, "envelope:closed:"+env.ID)
	require.NoError(t, err)
	require.Equal(t, "finished", hint)

	r, err = uc.ClaimEnvelope(ctx, env.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimAlreadyClaimed, r.Outcome)

	r, err = uc.ClaimEnvelope(ctx, env.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimFinished, r.Outcome)
}

func TestClaimEnvelope_ClosedHintListFailureReadsFinished(t *testing.T) {
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "envelope:closed:env-1").Return(string(domain.EnvelopeStatusCancelled), nil)
	claims := mocks.NewMockClaimRepository(ctrl)
	claims.EXPECT().ListByEnvelope(gomock.Any(), "env-1").Return(nil, errors.New("connection refused"))

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager: mocks.NewMockTransactionManager(ctrl),
		ClaimRepo: claims,
		Cache:     cache,
	})

	r, err := uc.ClaimEnvelope(context.Background(), "env-1", 5)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimFinished, r.Outcome)
}

func TestClaimEnvelope_ClosedHintSkipsStorage(t *testing.T) {
	ctrl := gomock.NewController(t)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "envelope:closed:env-1").Return(string(domain.EnvelopeStatusFinished), nil)

	// No expectations: any transaction would fail the test.
	txManager := mocks.NewMockTransactionManager(ctrl)

	claims := mocks.NewMockClaimRepository(ctrl)
	claims.EXPECT().ListByEnvelope(gomock.Any(), "env-1").Return([]*domain.Claim{{EnvelopeID: "env-1", UserID: 9}}, nil)

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager: txManager,
		ClaimRepo: claims,
		Cache:     cache,
	})

	r, err := uc.ClaimEnvelope(context.Background(), "env-1", 5)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimFinished, r.Outcome)
}

func TestClaimEnvelope_MarksFinishedInCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "1")
	env := h.create(t, 1, "USDT", "1", 1)

	cache := mocks.NewMockCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", errors.New("redis: nil"))
	cache.EXPECT().Set(gomock.Any(), "envelope:closed:"+env.ID, "finished", usecase.ClosedEnvelopeHintTTL).Return(nil)

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    h.store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		IDGen:        mocks.NewSequentialIDGenerator("c"),
		Cache:        cache,
	})

	r, err := uc.ClaimEnvelope(context.Background(), env.ID, 2)
	require.NoError(t, err)
	assert.True(t, r.IsLast)
}

func TestClaimEnvelope_LockFailureIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "3")
	env := h.create(t, 1, "USDT", "3", 3)

	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().Lock(gomock.Any(), "envelope:"+env.ID).Return(nil, errors.New("redis down"))

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    h.store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		IDGen:        mocks.NewSequentialIDGenerator("c"),
		Locker:       locker,
	})

	r, err := uc.ClaimEnvelope(context.Background(), env.ID, 2)
	require.NoError(t, err)
	assert.True(t, r.OK())
}

func TestClaimEnvelope_LockIsReleased(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "3")
	env := h.create(t, 1, "USDT", "3", 3)

	released := false
	locker := mocks.NewMockLocker(ctrl)
	locker.EXPECT().Lock(gomock.Any(), "envelope:"+env.ID).Return(func() { released = true }, nil)

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    h.store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		IDGen:        mocks.NewSequentialIDGenerator("c"),
		Locker:       locker,
	})

	_, err := uc.ClaimEnvelope(context.Background(), env.ID, 2)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestClaimEnvelope_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mocks.NewMockTransactionManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{TxManager: txManager})

	r, err := uc.ClaimEnvelope(context.Background(), "env-1", 5)
	assert.Nil(t, r)
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.True(t, usecase.IsRetryable(err))
}

func TestClaimEnvelope_RetrierWrapsAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "3")
	env := h.create(t, 1, "USDT", "3", 3)

	retrier := mocks.NewMockRetrier(ctrl)
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		return op()
	})

	uc := usecase.NewEnvelopeUseCase(usecase.EnvelopeUseCaseConfig{
		TxManager:    h.store,
		EnvelopeRepo: h.envelopes,
		ClaimRepo:    h.claims,
		OutboxRepo:   h.outbox,
		TokenRepo:    h.tokens,
		Balances:     h.balanceUC,
		IDGen:        mocks.NewSequentialIDGenerator("c"),
		Retrier:      retrier,
	})

	r, err := uc.ClaimEnvelope(context.Background(), env.ID, 2)
	require.NoError(t, err)
	assert.True(t, r.OK())
}

func TestCancel_RefundsRemainderOnce(t *testing.T) {
	h := newHarness(t, 3)
	h.fund(t, 1, "USDT", "20")
	env := h.create(t, 1, "USDT", "20", 4)

	first := h.claim(t, env.ID, 2)
	require.True(t, first.OK())

	refunded, err := h.envelopeUC.Cancel(context.Background(), env.ID, 1)
	require.NoError(t, err)
	assert.True(t, refunded.Equal(dec("20").Sub(first.Amount)))
	assert.True(t, h.balance(t, 1, "USDT").Equal(refunded))

	_, err = h.envelopeUC.Cancel(context.Background(), env.ID, 1)
	require.ErrorIs(t, err, domain.ErrEnvelopeNotActive)
	assert.True(t, h.balance(t, 1, "USDT").Equal(refunded))

	r := h.claim(t, env.ID, 3)
	assert.Equal(t, domain.ClaimFinished, r.Outcome)

	got, err := h.envelopeUC.GetEnvelope(context.Background(), env.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeStatusCancelled, got.Status)
	assert.True(t, got.RemainingAmount.IsZero())

	v, err := h.reconUC.VerifyEnvelope(context.Background(), env.ID)
	require.NoError(t, err)
	assert.True(t, v.OK(), "violations: %v", v.Violations)
	assert.True(t, v.Refunded.Equal(refunded))
	h.requireReconciled(t)
}

func TestCancel_OnlySender(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "5")
	env := h.create(t, 1, "USDT", "5", 2)

	_, err := h.envelopeUC.Cancel(context.Background(), env.ID, 2)
	require.ErrorIs(t, err, domain.ErrNotEnvelopeSender)
	assert.True(t, h.balance(t, 1, "USDT").IsZero())
}

func TestCancel_FinishedEnvelope(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "5")
	env := h.create(t, 1, "USDT", "5", 1)
	h.claim(t, env.ID, 2)

	_, err := h.envelopeUC.Cancel(context.Background(), env.ID, 1)
	require.ErrorIs(t, err, domain.ErrEnvelopeNotActive)
}

func TestExpireStale(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "USDT", "10")
	stale := h.create(t, 1, "USDT", "4", 2)
	finished := h.create(t, 1, "USDT", "1", 1)
	h.claim(t, finished.ID, 2)

	n, err := h.envelopeUC.ExpireStale(context.Background(), time.Now(), 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = h.envelopeUC.ExpireStale(context.Background(), time.Now().Add(usecase.DefaultEnvelopeTTL+time.Minute), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, h.balance(t, 1, "USDT").Equal(dec("9")))

	got, err := h.envelopeUC.GetEnvelope(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EnvelopeStatusCancelled, got.Status)
	h.requireReconciled(t)
}

func TestListByChat(t *testing.T) {
	h := newHarness(t, 1)
	h.fund(t, 1, "POINT", "100")
	a := h.create(t, 1, "POINT", "10", 2)
	b := h.create(t, 1, "POINT", "10", 2)

	envs, err := h.envelopeUC.ListByChat(context.Background(), -100, 10, 0)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	ids := []string{envs[0].ID, envs[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	envs, err = h.envelopeUC.ListByChat(context.Background(), 555, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}
