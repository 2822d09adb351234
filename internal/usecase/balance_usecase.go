package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
)

// BalanceUseCase is the only writer of balances. Every change appends a ledger
// entry and updates the snapshot inside the caller's transaction.
type BalanceUseCase struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	ledgerRepo  LedgerRepository
	tokenRepo   TokenRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

func NewBalanceUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	ledgerRepo LedgerRepository,
	tokenRepo TokenRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *BalanceUseCase {
	return &BalanceUseCase{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		ledgerRepo:  ledgerRepo,
		tokenRepo:   tokenRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// Debit removes p.Amount from the user's balance inside tx.
func (uc *BalanceUseCase) Debit(ctx context.Context, tx Transaction, p domain.Posting) (*domain.LedgerEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance, err := uc.balanceRepo.Debit(ctx, tx, p.UserID, p.Asset, p.Amount, now)
	if err != nil {
		return nil, err
	}

	return uc.appendEntry(ctx, tx, p, p.Amount.Neg(), balance, now)
}

// Credit adds p.Amount to the user's balance inside tx.
func (uc *BalanceUseCase) Credit(ctx context.Context, tx Transaction, p domain.Posting) (*domain.LedgerEntry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	balance, err := uc.balanceRepo.Credit(ctx, tx, p.UserID, p.Asset, p.Amount, now)
	if err != nil {
		return nil, err
	}

	return uc.appendEntry(ctx, tx, p, p.Amount, balance, now)
}

func (uc *BalanceUseCase) appendEntry(ctx context.Context, tx Transaction, p domain.Posting, delta, balance decimal.Decimal, at time.Time) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:           uc.idGen.Generate(),
		UserID:       p.UserID,
		Asset:        p.Asset,
		Delta:        delta,
		BalanceAfter: balance,
		RefType:      p.RefType,
		RefID:        p.RefID,
		Note:         p.Note,
		CreatedAt:    at,
	}
	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Refund consumes a refund ticket inside tx. A ticket that was already
// refunded yields (nil, nil).
func (uc *BalanceUseCase) Refund(ctx context.Context, tx Transaction, token string) (*domain.LedgerEntry, error) {
	ticket, ok, err := uc.tokenRepo.ConsumeRefund(ctx, tx, token, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	entry, err := uc.Credit(ctx, tx, ticket.Posting())
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.Refunds.Inc()
	}

	return entry, nil
}

// RefundTicket consumes a refund ticket in its own transaction.
func (uc *BalanceUseCase) RefundTicket(ctx context.Context, token string) (*domain.LedgerEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := uc.Refund(txCtx, tx, token)
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, classify(err)
	}

	return entry, nil
}

// AdjustInput is an operator correction. A negative Amount debits.
type AdjustInput struct {
	UserID int64
	Asset  string
	Amount decimal.Decimal
	Note   string
}

// Adjust credits or debits a balance outside of any envelope flow.
func (uc *BalanceUseCase) Adjust(ctx context.Context, input AdjustInput) (*domain.LedgerEntry, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", domain.ErrValidation)
	}
	if input.Amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}

	asset, err := domain.LookupAsset(input.Asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	posting := domain.Posting{
		UserID:  input.UserID,
		Asset:   asset.Code,
		Amount:  input.Amount.Abs(),
		RefType: domain.RefTypeAdjustment,
		RefID:   uc.idGen.Generate(),
		Note:    fmt.Sprintf("%s by %s", input.Note, domain.ActorFromContext(ctx)),
	}

	direction := "credit"
	var entry *domain.LedgerEntry
	if input.Amount.IsNegative() {
		direction = "debit"
		entry, err = uc.Debit(txCtx, tx, posting)
	} else {
		entry, err = uc.Credit(txCtx, tx, posting)
	}
	if err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, classify(err)
	}

	if uc.metrics != nil {
		uc.metrics.Adjustments.WithLabelValues(direction).Inc()
	}

	return entry, nil
}

// GetBalance returns the snapshot of one asset. Unknown users have a zero balance.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, userID int64, assetCode string) (*domain.Balance, error) {
	asset, err := domain.LookupAsset(assetCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	balance, err := uc.balanceRepo.Get(ctx, userID, asset.Code)
	if err != nil {
		return nil, classify(err)
	}
	return balance, nil
}

// ListBalances returns every asset snapshot a user holds.
func (uc *BalanceUseCase) ListBalances(ctx context.Context, userID int64) ([]*domain.Balance, error) {
	balances, err := uc.balanceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return balances, nil
}

// ListEntriesInput filters a user's ledger. An empty Asset lists all assets.
type ListEntriesInput struct {
	UserID int64
	Asset  string
	Limit  int
	Offset int
}

// ListEntries returns ledger entries newest first.
func (uc *BalanceUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset, _ := domain.ValidatePagination(input.Limit, input.Offset)

	asset := ""
	if input.Asset != "" {
		a, err := domain.LookupAsset(input.Asset)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		asset = a.Code
	}

	entries, err := uc.ledgerRepo.ListByUser(ctx, input.UserID, asset, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	return entries, nil
}
