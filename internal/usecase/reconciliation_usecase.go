package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
)

// ReconciliationUseCase checks that snapshots agree with the ledger and that
// envelopes conserve their totals.
type ReconciliationUseCase struct {
	balanceRepo  BalanceRepository
	ledgerRepo   LedgerRepository
	envelopeRepo EnvelopeRepository
	claimRepo    ClaimRepository
	tokenRepo    TokenRepository
	metrics      *metrics.Metrics
}

func NewReconciliationUseCase(
	balanceRepo BalanceRepository,
	ledgerRepo LedgerRepository,
	envelopeRepo EnvelopeRepository,
	claimRepo ClaimRepository,
	tokenRepo TokenRepository,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		balanceRepo:  balanceRepo,
		ledgerRepo:   ledgerRepo,
		envelopeRepo: envelopeRepo,
		claimRepo:    claimRepo,
		tokenRepo:    tokenRepo,
		metrics:      metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	UserID            int64
	Asset             string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileBalance compares one snapshot with the sum of its ledger deltas.
func (uc *ReconciliationUseCase) ReconcileBalance(ctx context.Context, userID int64, asset string) (*ReconciliationResult, error) {
	a, err := domain.LookupAsset(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	balance, err := uc.balanceRepo.Get(ctx, userID, a.Code)
	if err != nil {
		return nil, classify(err)
	}

	sum, err := uc.ledgerRepo.SumByUser(ctx, userID, a.Code)
	if err != nil {
		return nil, classify(err)
	}

	diff := balance.Amount.Sub(sum)
	return &ReconciliationResult{
		UserID:            userID,
		Asset:             a.Code,
		RecordedBalance:   balance.Amount,
		CalculatedBalance: sum,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}, nil
}

// ReconcileAll returns every (user, asset) whose snapshot disagrees with the ledger.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) ([]*ReconciliationResult, error) {
	drifts, err := uc.ledgerRepo.FindDrift(ctx)
	if err != nil {
		return nil, classify(err)
	}

	now := time.Now().UTC()
	results := make([]*ReconciliationResult, 0, len(drifts))
	for _, d := range drifts {
		results = append(results, &ReconciliationResult{
			UserID:            d.UserID,
			Asset:             d.Asset,
			RecordedBalance:   d.Recorded,
			CalculatedBalance: d.Calculated,
			Difference:        d.Difference(),
			IsReconciled:      false,
			LastChecked:       now,
		})
	}

	if uc.metrics != nil {
		uc.metrics.BalanceDrift.Set(float64(len(results)))
	}

	return results, nil
}

// EnvelopeVerification is the conservation check of a single envelope.
type EnvelopeVerification struct {
	EnvelopeID string
	Status     domain.EnvelopeStatus
	Total      decimal.Decimal
	Claimed    decimal.Decimal
	Remaining  decimal.Decimal
	Refunded   decimal.Decimal
	ClaimCount int
	Violations []string
}

// OK reports whether the envelope passed every check.
func (v *EnvelopeVerification) OK() bool {
	return len(v.Violations) == 0
}

// VerifyEnvelope checks sum(claims) + remaining + refunded == total together
// with the claim count, the per-claim minimum and the ledger postings.
func (uc *ReconciliationUseCase) VerifyEnvelope(ctx context.Context, envelopeID string) (*EnvelopeVerification, error) {
	env, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, classify(err)
	}

	claims, err := uc.claimRepo.ListByEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, classify(err)
	}

	refunded := decimal.Zero
	ticket, err := uc.tokenRepo.GetRefund(ctx, domain.RefundTokenForEnvelope(envelopeID))
	switch {
	case err == nil:
		if ticket.Refunded {
			refunded = ticket.Amount
		}
	case errors.Is(err, domain.ErrRefundTicketNotFound):
	default:
		return nil, classify(err)
	}

	v := &EnvelopeVerification{
		EnvelopeID: env.ID,
		Status:     env.Status,
		Total:      env.TotalAmount,
		Claimed:    decimal.Zero,
		Remaining:  env.RemainingAmount,
		Refunded:   refunded,
		ClaimCount: len(claims),
	}

	for _, c := range claims {
		v.Claimed = v.Claimed.Add(c.Amount)
		if c.Amount.LessThan(env.MinUnit) {
			v.violate("claim by user %d of %s is below min unit %s", c.UserID, c.Amount, env.MinUnit)
		}
	}

	if sum := v.Claimed.Add(v.Remaining).Add(v.Refunded); !sum.Equal(env.TotalAmount) {
		v.violate("claimed %s + remaining %s + refunded %s != total %s", v.Claimed, v.Remaining, v.Refunded, env.TotalAmount)
	}
	switch env.Status {
	case domain.EnvelopeStatusCancelled:
		// Cancellation zeroes the remaining shares, so only the upper bound holds.
		if len(claims) > env.ShareCount {
			v.violate("%d claims recorded for %d shares", len(claims), env.ShareCount)
		}
		if !env.RemainingAmount.IsZero() {
			v.violate("cancelled envelope still holds %s", env.RemainingAmount)
		}
	case domain.EnvelopeStatusFinished:
		if env.RemainingShares != 0 || !env.RemainingAmount.IsZero() {
			v.violate("finished envelope still holds %d shares and %s", env.RemainingShares, env.RemainingAmount)
		}
		fallthrough
	default:
		if len(claims) != env.ClaimedShares() {
			v.violate("%d claims recorded but %d shares taken", len(claims), env.ClaimedShares())
		}
	}

	grabs, err := uc.ledgerRepo.ListByRef(ctx, domain.RefTypeEnvelopeGrab, env.ID)
	if err != nil {
		return nil, classify(err)
	}
	credited := decimal.Zero
	for _, e := range grabs {
		credited = credited.Add(e.Delta)
	}
	if !credited.Equal(v.Claimed) {
		v.violate("ledger credited %s to claimants but claims sum to %s", credited, v.Claimed)
	}

	return v, nil
}

func (v *EnvelopeVerification) violate(format string, args ...any) {
	v.Violations = append(v.Violations, fmt.Sprintf(format, args...))
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	Discrepancies    []*ReconciliationResult
	LedgerConsistent bool
	CheckedAt        time.Time
}

// Report runs ReconcileAll and summarizes it.
func (uc *ReconciliationUseCase) Report(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAll(ctx)
	if err != nil {
		return nil, err
	}

	return &ReconciliationReport{
		Discrepancies:    results,
		LedgerConsistent: len(results) == 0,
		CheckedAt:        time.Now().UTC(),
	}, nil
}
