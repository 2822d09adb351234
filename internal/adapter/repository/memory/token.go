package memory

import (
	"context"
	"time"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// TokenRepository implements usecase.TokenRepository.
type TokenRepository struct {
	store *Store
}

func NewTokenRepository(store *Store) *TokenRepository {
	return &TokenRepository{store: store}
}

func (r *TokenRepository) IssueRefund(ctx context.Context, tx usecase.Transaction, ticket *domain.RefundTicket) (bool, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return false, err
	}

	if _, ok := r.store.refunds[ticket.Token]; ok {
		return false, nil
	}

	stored := cloneTicket(ticket)
	stored.Refunded = false
	stored.RefundedAt = nil
	r.store.refunds[ticket.Token] = stored
	t.onRollback(func() { delete(r.store.refunds, ticket.Token) })
	return true, nil
}

// ConsumeRefund flips refunded once. Later calls return ok == false.
func (r *TokenRepository) ConsumeRefund(ctx context.Context, tx usecase.Transaction, token string, at time.Time) (*domain.RefundTicket, bool, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return nil, false, err
	}

	prev, ok := r.store.refunds[token]
	if !ok {
		return nil, false, domain.ErrRefundTicketNotFound
	}
	if prev.Refunded {
		return cloneTicket(prev), false, nil
	}

	next := cloneTicket(prev)
	next.Refunded = true
	next.RefundedAt = &at
	r.store.refunds[token] = next
	t.onRollback(func() { r.store.refunds[token] = prev })
	return cloneTicket(next), true, nil
}

func (r *TokenRepository) GetRefund(ctx context.Context, token string) (*domain.RefundTicket, error) {
	var out *domain.RefundTicket
	err := r.store.read(ctx, func() error {
		t, ok := r.store.refunds[token]
		if !ok {
			return domain.ErrRefundTicketNotFound
		}
		out = cloneTicket(t)
		return nil
	})
	return out, err
}

// AcquireNotification stores the token if it is new. It is not transactional.
func (r *TokenRepository) AcquireNotification(ctx context.Context, token, refID string, at time.Time) (bool, error) {
	acquired := false
	err := r.store.read(ctx, func() error {
		if _, ok := r.store.notifications[token]; ok {
			return nil
		}
		r.store.notifications[token] = notificationToken{refID: refID}
		acquired = true
		return nil
	})
	return acquired, err
}
