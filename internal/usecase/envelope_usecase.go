package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
)

// EnvelopeUseCaseConfig wires an EnvelopeUseCase. Retrier, Locker, Cache and
// Metrics are optional.
type EnvelopeUseCaseConfig struct {
	TxManager    TransactionManager
	EnvelopeRepo EnvelopeRepository
	ClaimRepo    ClaimRepository
	OutboxRepo   OutboxRepository
	TokenRepo    TokenRepository
	Balances     *BalanceUseCase
	Allocator    *domain.SplitAllocator
	IDGen        IDGenerator
	Retrier      Retrier
	Locker       Locker
	Cache        Cache
	Limits       domain.Limits
	TTL          time.Duration
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// EnvelopeUseCase creates, claims and cancels envelopes.
type EnvelopeUseCase struct {
	txManager    TransactionManager
	envelopeRepo EnvelopeRepository
	claimRepo    ClaimRepository
	outboxRepo   OutboxRepository
	tokenRepo    TokenRepository
	balances     *BalanceUseCase
	allocator    *domain.SplitAllocator
	idGen        IDGenerator
	retrier      Retrier
	locker       Locker
	cache        Cache
	limits       domain.Limits
	ttl          time.Duration
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

func NewEnvelopeUseCase(cfg EnvelopeUseCaseConfig) *EnvelopeUseCase {
	if cfg.Allocator == nil {
		cfg.Allocator = domain.NewSplitAllocator(nil)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultEnvelopeTTL
	}

	return &EnvelopeUseCase{
		txManager:    cfg.TxManager,
		envelopeRepo: cfg.EnvelopeRepo,
		claimRepo:    cfg.ClaimRepo,
		outboxRepo:   cfg.OutboxRepo,
		tokenRepo:    cfg.TokenRepo,
		balances:     cfg.Balances,
		allocator:    cfg.Allocator,
		idGen:        cfg.IDGen,
		retrier:      cfg.Retrier,
		locker:       cfg.Locker,
		cache:        cfg.Cache,
		limits:       cfg.Limits,
		ttl:          cfg.TTL,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// CreateEnvelopeInput represents input for creating an envelope.
type CreateEnvelopeInput struct {
	ChatID   int64
	SenderID int64
	Asset    string
	Total    decimal.Decimal
	Shares   int
	// MinUnit overrides the asset's default smallest share.
	MinUnit *decimal.Decimal
	Note    string

	relayedFrom string
}

// CreateEnvelope debits the sender and persists a new active envelope atomically.
func (uc *EnvelopeUseCase) CreateEnvelope(ctx context.Context, input CreateEnvelopeInput) (*domain.Envelope, error) {
	start := time.Now()

	if input.ChatID == 0 {
		return nil, fmt.Errorf("%w: chat id is required", domain.ErrValidation)
	}
	if input.SenderID <= 0 {
		return nil, fmt.Errorf("%w: sender id must be positive", domain.ErrValidation)
	}

	spec, err := domain.ValidateEnvelope(input.Asset, input.Total, input.Shares, input.MinUnit, input.Note, uc.limits)
	if err != nil {
		uc.observe("create", metrics.StatusRejected, start)
		return nil, err
	}

	var env *domain.Envelope
	err = retry(ctx, uc.retrier, func() error {
		created, err := uc.createOnce(ctx, input, spec)
		if err != nil {
			return err
		}
		env = created
		return nil
	})
	if err != nil {
		err = classify(err)
		uc.observeError("create", err, start)
		return nil, err
	}

	uc.observe("create", metrics.StatusSuccess, start)
	if uc.metrics != nil {
		origin := "direct"
		if env.RelayedFrom != "" {
			origin = "relay"
		}
		uc.metrics.EnvelopesCreated.WithLabelValues(env.Asset, origin).Inc()
	}

	return env, nil
}

func (uc *EnvelopeUseCase) createOnce(ctx context.Context, input CreateEnvelopeInput, spec domain.EnvelopeSpec) (*domain.Envelope, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	env := &domain.Envelope{
		ID:              uc.idGen.Generate(),
		ChatID:          input.ChatID,
		SenderID:        input.SenderID,
		Asset:           spec.Asset.Code,
		TotalAmount:     spec.Total,
		MinUnit:         spec.MinUnit,
		RemainingAmount: spec.Total,
		ShareCount:      spec.Shares,
		RemainingShares: spec.Shares,
		Status:          domain.EnvelopeStatusActive,
		Note:            spec.Note,
		RelayedFrom:     input.relayedFrom,
		Version:         1,
		CreatedAt:       now,
	}

	// 1. Debit the sender; fails without side effects if the balance is short
	_, err = uc.balances.Debit(txCtx, tx, domain.Posting{
		UserID:  env.SenderID,
		Asset:   env.Asset,
		Amount:  env.TotalAmount,
		RefType: domain.RefTypeEnvelopeSend,
		RefID:   env.ID,
		Note:    "send envelope",
	})
	if err != nil {
		return nil, err
	}

	// 2. Persist the envelope
	if err := uc.envelopeRepo.Create(txCtx, tx, env); err != nil {
		return nil, err
	}

	// 3. Outbox
	eventType := domain.EventTypeEnvelopeCreated
	if env.RelayedFrom != "" {
		eventType = domain.EventTypeEnvelopeRelayed
	}
	if err := writeEvents(txCtx, uc.outboxRepo, tx, envelopeEvent(uc.idGen, eventType, env, nil, now)); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return env, nil
}

// ClaimEnvelope grants userID one share of the envelope. Expected outcomes
// (already claimed, finished, not found) are reported through the result; the
// error is reserved for invalid input and storage failures.
func (uc *EnvelopeUseCase) ClaimEnvelope(ctx context.Context, envelopeID string, userID int64) (*domain.ClaimResult, error) {
	start := time.Now()

	if envelopeID == "" {
		return nil, fmt.Errorf("%w: envelope id is required", domain.ErrValidation)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", domain.ErrValidation)
	}

	if uc.isClosed(ctx, envelopeID) {
		return uc.claimOutcome(envelopeID, userID, uc.closedOutcome(ctx, envelopeID, userID), start), nil
	}

	unlock := uc.acquire(ctx, envelopeID)
	defer unlock()

	var result *domain.ClaimResult
	err := retry(ctx, uc.retrier, func() error {
		r, err := uc.claimOnce(ctx, envelopeID, userID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if outcome, ok := domain.ClaimOutcomeFromError(err); ok {
			if outcome == domain.ClaimFinished {
				uc.markClosed(ctx, envelopeID, domain.EnvelopeStatusFinished)
			}
			return uc.claimOutcome(envelopeID, userID, outcome, start), nil
		}

		err = classify(err)
		uc.observeError("claim", err, start)
		return nil, err
	}

	if result.IsLast {
		uc.markClosed(ctx, envelopeID, domain.EnvelopeStatusFinished)
		if uc.metrics != nil {
			uc.metrics.EnvelopesFinished.Inc()
		}
	}

	uc.observe("claim", metrics.StatusSuccess, start)
	if uc.metrics != nil {
		uc.metrics.Claims.WithLabelValues(string(domain.ClaimOK)).Inc()
		uc.metrics.ClaimDuration.Observe(time.Since(start).Seconds())
	}

	return result, nil
}

func (uc *EnvelopeUseCase) claimOnce(ctx context.Context, envelopeID string, userID int64) (*domain.ClaimResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 1. Lock the envelope row
	env, err := uc.envelopeRepo.GetByIDForUpdate(txCtx, tx, envelopeID)
	if err != nil {
		return nil, err
	}

	// 2. Duplicate check before the status check, so the holder of the last
	// share hears AlreadyClaimed rather than Finished. The unique constraint
	// still decides races.
	exists, err := uc.claimRepo.Exists(txCtx, tx, envelopeID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyClaimed
	}

	if err := env.ValidateClaimable(); err != nil {
		return nil, err
	}

	// 3. Draw against the locked remaining state
	asset, err := domain.LookupAsset(env.Asset)
	if err != nil {
		return nil, err
	}
	amount, err := uc.allocator.Next(asset, env.RemainingAmount, env.RemainingShares, env.MinUnit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// 4. Conditional decrement
	updated, err := uc.envelopeRepo.Decrement(txCtx, tx, env.ID, env.RemainingShares, amount, now)
	if err != nil {
		return nil, err
	}

	// 5. Credit the claimant
	entry, err := uc.balances.Credit(txCtx, tx, domain.Posting{
		UserID:  userID,
		Asset:   env.Asset,
		Amount:  amount,
		RefType: domain.RefTypeEnvelopeGrab,
		RefID:   env.ID,
		Note:    "claim envelope",
	})
	if err != nil {
		return nil, err
	}

	// 6. Record the claim
	claim := &domain.Claim{
		EnvelopeID:    env.ID,
		UserID:        userID,
		Amount:        amount,
		Seq:           updated.ClaimedShares(),
		LedgerEntryID: entry.ID,
		ClaimedAt:     now,
	}
	if err := uc.claimRepo.Create(txCtx, tx, claim); err != nil {
		return nil, err
	}

	// 7. Outbox
	events := []*domain.OutboxEvent{
		envelopeEvent(uc.idGen, domain.EventTypeEnvelopeClaimed, updated, domain.ClaimPayload(updated, claim), now),
	}
	isLast := updated.Status == domain.EnvelopeStatusFinished
	if isLast {
		events = append(events, envelopeEvent(uc.idGen, domain.EventTypeEnvelopeFinished, updated, nil, now))
	}
	if err := writeEvents(txCtx, uc.outboxRepo, tx, events...); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	return &domain.ClaimResult{
		Outcome:         domain.ClaimOK,
		EnvelopeID:      env.ID,
		UserID:          userID,
		Asset:           env.Asset,
		Amount:          amount,
		Seq:             claim.Seq,
		IsLast:          isLast,
		RemainingShares: updated.RemainingShares,
		Envelope:        updated,
	}, nil
}

func (uc *EnvelopeUseCase) claimOutcome(envelopeID string, userID int64, outcome domain.ClaimOutcome, start time.Time) *domain.ClaimResult {
	status := metrics.StatusNotFound
	switch outcome {
	case domain.ClaimAlreadyClaimed:
		status = metrics.StatusDuplicate
	case domain.ClaimFinished:
		status = metrics.StatusFinished
	}
	uc.observe("claim", status, start)
	if uc.metrics != nil {
		uc.metrics.Claims.WithLabelValues(string(outcome)).Inc()
	}

	return &domain.ClaimResult{
		Outcome:    outcome,
		EnvelopeID: envelopeID,
		UserID:     userID,
	}
}

// Cancel stops an active envelope on behalf of its sender and refunds what is
// left. It returns the refunded amount.
func (uc *EnvelopeUseCase) Cancel(ctx context.Context, envelopeID string, callerID int64) (decimal.Decimal, error) {
	if envelopeID == "" {
		return decimal.Zero, fmt.Errorf("%w: envelope id is required", domain.ErrValidation)
	}
	return uc.cancel(ctx, envelopeID, &callerID, "sender")
}

// ExpireStale cancels up to limit active envelopes created before now minus the
// configured TTL. It returns how many were refunded.
func (uc *EnvelopeUseCase) ExpireStale(ctx context.Context, now time.Time, limit int) (int, error) {
	stale, err := uc.envelopeRepo.ListActiveBefore(ctx, now.Add(-uc.ttl), limit)
	if err != nil {
		return 0, classify(err)
	}

	expired := 0
	for _, env := range stale {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}

		if _, err := uc.cancel(ctx, env.ID, nil, "expired"); err != nil {
			if errors.Is(err, domain.ErrEnvelopeNotActive) {
				continue
			}
			uc.logger.Error().Err(err).Str("envelope_id", env.ID).Msg("failed to expire envelope")
			continue
		}
		expired++
	}

	if uc.metrics != nil && expired > 0 {
		uc.metrics.SweptEnvelopes.Add(float64(expired))
	}

	return expired, nil
}

// cancel flips the envelope and refunds its remainder. A nil callerID is the
// system acting on expiry and skips the sender check.
func (uc *EnvelopeUseCase) cancel(ctx context.Context, envelopeID string, callerID *int64, reason string) (decimal.Decimal, error) {
	start := time.Now()

	unlock := uc.acquire(ctx, envelopeID)
	defer unlock()

	var refunded decimal.Decimal
	err := retry(ctx, uc.retrier, func() error {
		amount, err := uc.cancelOnce(ctx, envelopeID, callerID, reason)
		if err != nil {
			return err
		}
		refunded = amount
		return nil
	})
	if err != nil {
		err = classify(err)
		uc.observeError("cancel", err, start)
		return decimal.Zero, err
	}

	uc.markClosed(ctx, envelopeID, domain.EnvelopeStatusCancelled)
	uc.observe("cancel", metrics.StatusSuccess, start)
	if uc.metrics != nil {
		uc.metrics.EnvelopesCancelled.WithLabelValues(reason).Inc()
	}

	return refunded, nil
}

func (uc *EnvelopeUseCase) cancelOnce(ctx context.Context, envelopeID string, callerID *int64, reason string) (decimal.Decimal, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	env, err := uc.envelopeRepo.GetByIDForUpdate(txCtx, tx, envelopeID)
	if err != nil {
		return decimal.Zero, err
	}

	if callerID != nil {
		err = env.ValidateCancel(*callerID)
	} else if env.Status != domain.EnvelopeStatusActive {
		err = domain.ErrEnvelopeNotActive
	}
	if err != nil {
		return decimal.Zero, err
	}

	now := time.Now().UTC()
	remaining := env.RemainingAmount

	updated, err := uc.envelopeRepo.Cancel(txCtx, tx, env.ID, now)
	if err != nil {
		return decimal.Zero, err
	}

	refunded := decimal.Zero
	if remaining.IsPositive() {
		ticket := &domain.RefundTicket{
			Token:     domain.RefundTokenForEnvelope(env.ID),
			UserID:    env.SenderID,
			Asset:     env.Asset,
			Amount:    remaining,
			RefType:   domain.RefTypeEnvelopeRefund,
			RefID:     env.ID,
			CreatedAt: now,
		}
		if _, err := uc.tokenRepo.IssueRefund(txCtx, tx, ticket); err != nil {
			return decimal.Zero, err
		}

		entry, err := uc.balances.Refund(txCtx, tx, ticket.Token)
		if err != nil {
			return decimal.Zero, err
		}
		if entry != nil {
			refunded = entry.Delta
		}
	}

	payload := domain.EnvelopePayload(updated)
	payload["refunded"] = refunded.String()
	payload["reason"] = reason
	if err := writeEvents(txCtx, uc.outboxRepo, tx, envelopeEvent(uc.idGen, domain.EventTypeEnvelopeCancelled, updated, payload, now)); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return decimal.Zero, err
	}

	return refunded, nil
}

// GetEnvelope returns an envelope by ID.
func (uc *EnvelopeUseCase) GetEnvelope(ctx context.Context, id string) (*domain.Envelope, error) {
	env, err := uc.envelopeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	return env, nil
}

// ListByChat returns a chat's envelopes newest first.
func (uc *EnvelopeUseCase) ListByChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Envelope, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	envs, err := uc.envelopeRepo.ListByChat(ctx, chatID, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	return envs, nil
}

func closedKey(envelopeID string) string {
	return "envelope:closed:" + envelopeID
}

func (uc *EnvelopeUseCase) isClosed(ctx context.Context, envelopeID string) bool {
	if uc.cache == nil {
		return false
	}
	v, err := uc.cache.Get(ctx, closedKey(envelopeID))
	return err == nil && v != ""
}

// closedOutcome answers a claim on an envelope the cache reports closed. A
// claimant who already holds a share gets AlreadyClaimed; a failed lookup
// falls back to Finished, which is never wrong for a newcomer.
func (uc *EnvelopeUseCase) closedOutcome(ctx context.Context, envelopeID string, userID int64) domain.ClaimOutcome {
	claims, err := uc.claimRepo.ListByEnvelope(ctx, envelopeID)
	if err != nil {
		uc.logger.Debug().Err(err).Str("envelope_id", envelopeID).Msg("failed to list claims of closed envelope")
		return domain.ClaimFinished
	}
	for _, c := range claims {
		if c.UserID == userID {
			return domain.ClaimAlreadyClaimed
		}
	}
	return domain.ClaimFinished
}

func (uc *EnvelopeUseCase) markClosed(ctx context.Context, envelopeID string, status domain.EnvelopeStatus) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, closedKey(envelopeID), string(status), ClosedEnvelopeHintTTL); err != nil {
		uc.logger.Debug().Err(err).Str("envelope_id", envelopeID).Msg("failed to cache closed envelope")
	}
}

// acquire takes the advisory envelope lock. A lock failure is logged and the
// caller proceeds, since storage constraints remain authoritative.
func (uc *EnvelopeUseCase) acquire(ctx context.Context, envelopeID string) func() {
	if uc.locker == nil {
		return func() {}
	}

	start := time.Now()
	unlock, err := uc.locker.Lock(ctx, "envelope:"+envelopeID)
	if uc.metrics != nil {
		uc.metrics.LockWait.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		uc.logger.Warn().Err(err).Str("envelope_id", envelopeID).Msg("envelope lock unavailable")
		return func() {}
	}
	return unlock
}

func (uc *EnvelopeUseCase) observe(operation, status string, start time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.Operations.WithLabelValues(operation, status).Inc()
	uc.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (uc *EnvelopeUseCase) observeError(operation string, err error, start time.Time) {
	if IsRetryable(err) {
		uc.observe(operation, metrics.StatusUnexpected, start)
		if uc.metrics != nil {
			uc.metrics.StorageErrors.WithLabelValues(operation).Inc()
		}
		uc.logger.Error().Err(err).Str("operation", operation).Msg("storage failure")
		return
	}
	uc.observe(operation, metrics.StatusRejected, start)
}
