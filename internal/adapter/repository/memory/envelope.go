package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// EnvelopeRepository implements usecase.EnvelopeRepository.
type EnvelopeRepository struct {
	store *Store
}

func NewEnvelopeRepository(store *Store) *EnvelopeRepository {
	return &EnvelopeRepository{store: store}
}

// Create inserts an envelope, enforcing one relay per source envelope.
func (r *EnvelopeRepository) Create(ctx context.Context, tx usecase.Transaction, env *domain.Envelope) error {
	t, err := r.store.tx(tx)
	if err != nil {
		return err
	}

	if _, ok := r.store.envelopes[env.ID]; ok {
		return errDuplicate
	}
	if env.RelayedFrom != "" {
		for _, existing := range r.store.envelopes {
			if existing.RelayedFrom == env.RelayedFrom {
				return domain.ErrAlreadyRelayed
			}
		}
	}

	r.store.envelopes[env.ID] = cloneEnvelope(env)
	t.onRollback(func() { delete(r.store.envelopes, env.ID) })
	return nil
}

func (r *EnvelopeRepository) GetByID(ctx context.Context, id string) (*domain.Envelope, error) {
	var env *domain.Envelope
	err := r.store.read(ctx, func() error {
		e, ok := r.store.envelopes[id]
		if !ok {
			return domain.ErrEnvelopeNotFound
		}
		env = cloneEnvelope(e)
		return nil
	})
	return env, err
}

// GetByIDForUpdate reads inside tx; the open transaction already excludes other writers.
func (r *EnvelopeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Envelope, error) {
	if _, err := r.store.tx(tx); err != nil {
		return nil, err
	}
	e, ok := r.store.envelopes[id]
	if !ok {
		return nil, domain.ErrEnvelopeNotFound
	}
	return cloneEnvelope(e), nil
}

// Decrement grants one share when the envelope is active with exactly expectedShares left.
func (r *EnvelopeRepository) Decrement(ctx context.Context, tx usecase.Transaction, id string, expectedShares int, amount decimal.Decimal, at time.Time) (*domain.Envelope, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return nil, err
	}

	prev, ok := r.store.envelopes[id]
	if !ok || prev.Status != domain.EnvelopeStatusActive || prev.RemainingShares != expectedShares || prev.RemainingShares <= 0 {
		return nil, domain.ErrEnvelopeFinished
	}

	next := prev.ApplyClaim(amount, at)
	r.store.envelopes[id] = next
	t.onRollback(func() { r.store.envelopes[id] = prev })
	return cloneEnvelope(next), nil
}

func (r *EnvelopeRepository) Cancel(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (*domain.Envelope, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return nil, err
	}

	prev, ok := r.store.envelopes[id]
	if !ok || prev.Status != domain.EnvelopeStatusActive {
		return nil, domain.ErrEnvelopeNotActive
	}

	next := prev.ApplyCancel(at)
	r.store.envelopes[id] = next
	t.onRollback(func() { r.store.envelopes[id] = prev })
	return cloneEnvelope(next), nil
}

func (r *EnvelopeRepository) ListByChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Envelope, error) {
	var out []*domain.Envelope
	err := r.store.read(ctx, func() error {
		for _, e := range r.store.envelopes {
			if e.ChatID == chatID {
				out = append(out, cloneEnvelope(e))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

func (r *EnvelopeRepository) ListActiveBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Envelope, error) {
	var out []*domain.Envelope
	err := r.store.read(ctx, func() error {
		for _, e := range r.store.envelopes {
			if e.Status == domain.EnvelopeStatusActive && e.CreatedAt.Before(before) {
				out = append(out, cloneEnvelope(e))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return page(out, limit, 0), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
