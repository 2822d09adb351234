package memory

import (
	"context"
	"time"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	t, err := r.store.tx(tx)
	if err != nil {
		return err
	}

	r.store.outbox = append(r.store.outbox, cloneEvent(event))
	t.onRollback(func() { r.store.outbox = r.store.outbox[:len(r.store.outbox)-1] })
	return nil
}

// GetUnpublished returns the oldest unpublished events first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	err := r.store.read(ctx, func() error {
		for _, e := range r.store.outbox {
			if e.Published {
				continue
			}
			out = append(out, cloneEvent(e))
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.read(ctx, func() error {
		for _, e := range r.store.outbox {
			if e.ID == id {
				e.Published = true
				e.PublishedAt = &publishedAt
				return nil
			}
		}
		return nil
	})
}

func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.read(ctx, func() error {
		kept := r.store.outbox[:0]
		for _, e := range r.store.outbox {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				continue
			}
			kept = append(kept, e)
		}
		r.store.outbox = kept
		return nil
	})
}
