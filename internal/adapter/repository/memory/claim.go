package memory

import (
	"context"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// ClaimRepository implements usecase.ClaimRepository.
type ClaimRepository struct {
	store *Store
}

func NewClaimRepository(store *Store) *ClaimRepository {
	return &ClaimRepository{store: store}
}

// Create inserts a claim. (envelope, user) and (envelope, seq) are unique.
func (r *ClaimRepository) Create(ctx context.Context, tx usecase.Transaction, claim *domain.Claim) error {
	t, err := r.store.tx(tx)
	if err != nil {
		return err
	}

	existing := r.store.claims[claim.EnvelopeID]
	for _, c := range existing {
		if c.UserID == claim.UserID || c.Seq == claim.Seq {
			return domain.ErrAlreadyClaimed
		}
	}

	r.store.claims[claim.EnvelopeID] = append(existing, cloneClaim(claim))
	t.onRollback(func() {
		claims := r.store.claims[claim.EnvelopeID]
		r.store.claims[claim.EnvelopeID] = claims[:len(claims)-1]
	})
	return nil
}

func (r *ClaimRepository) Exists(ctx context.Context, tx usecase.Transaction, envelopeID string, userID int64) (bool, error) {
	if _, err := r.store.tx(tx); err != nil {
		return false, err
	}
	for _, c := range r.store.claims[envelopeID] {
		if c.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ListByEnvelope returns claims in seq order.
func (r *ClaimRepository) ListByEnvelope(ctx context.Context, envelopeID string) ([]*domain.Claim, error) {
	var out []*domain.Claim
	err := r.store.read(ctx, func() error {
		claims := r.store.claims[envelopeID]
		out = make([]*domain.Claim, 0, len(claims))
		for _, c := range claims {
			out = append(out, cloneClaim(c))
		}
		return nil
	})
	return out, err
}
