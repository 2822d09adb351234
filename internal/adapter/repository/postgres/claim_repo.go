package postgres

import (
	"context"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/postgres/generated"
	"github.com/iho/hongbao/internal/usecase"
)

// ClaimRepository implements usecase.ClaimRepository.
type ClaimRepository struct {
	queries *generated.Queries
}

// NewClaimRepository creates a new ClaimRepository.
func NewClaimRepository(db generated.DBTX) *ClaimRepository {
	return &ClaimRepository{queries: generated.New(db)}
}

// Create inserts a claim. Both unique constraints on claims mean the grant lost
// a race, so either maps to domain.ErrAlreadyClaimed.
func (r *ClaimRepository) Create(ctx context.Context, tx usecase.Transaction, claim *domain.Claim) error {
	err := queriesFor(tx).CreateClaim(ctx, generated.CreateClaimParams{
		EnvelopeID:    claim.EnvelopeID,
		UserID:        claim.UserID,
		Amount:        decimalToNumeric(claim.Amount),
		Seq:           int32(claim.Seq),
		LedgerEntryID: claim.LedgerEntryID,
		ClaimedAt:     timeToPgTimestamptz(claim.ClaimedAt),
	})
	if _, ok := uniqueViolation(err); ok {
		return domain.ErrAlreadyClaimed
	}

	return err
}

// Exists reports whether the user already holds a share of the envelope.
func (r *ClaimRepository) Exists(ctx context.Context, tx usecase.Transaction, envelopeID string, userID int64) (bool, error) {
	return queriesFor(tx).ClaimExists(ctx, generated.ClaimExistsParams{
		EnvelopeID: envelopeID,
		UserID:     userID,
	})
}

// ListByEnvelope lists claims in grant order.
func (r *ClaimRepository) ListByEnvelope(ctx context.Context, envelopeID string) ([]*domain.Claim, error) {
	rows, err := r.queries.ListClaimsByEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, err
	}

	claims := make([]*domain.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, &domain.Claim{
			EnvelopeID:    row.EnvelopeID,
			UserID:        row.UserID,
			Amount:        numericToDecimal(row.Amount),
			Seq:           int(row.Seq),
			LedgerEntryID: row.LedgerEntryID,
			ClaimedAt:     row.ClaimedAt.Time,
		})
	}

	return claims, nil
}
