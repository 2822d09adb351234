package usecase

import (
	"context"
	"time"

	"github.com/iho/hongbao/internal/domain"
)

// envelopeEvent builds an outbox event for an envelope aggregate.
func envelopeEvent(idGen IDGenerator, eventType string, env *domain.Envelope, payload map[string]any, at time.Time) *domain.OutboxEvent {
	if payload == nil {
		payload = domain.EnvelopePayload(env)
	}
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   env.ID,
		AggregateType: domain.AggregateTypeEnvelope,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	}
}

func writeEvents(ctx context.Context, repo OutboxRepository, tx Transaction, events ...*domain.OutboxEvent) error {
	for _, event := range events {
		if err := repo.Create(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}
