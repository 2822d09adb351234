package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/metrics"
)

// RelayUseCase lets the lucky king of a finished envelope send a copy of it.
type RelayUseCase struct {
	rankings  *RankingUseCase
	envelopes *EnvelopeUseCase
	metrics   *metrics.Metrics
}

func NewRelayUseCase(rankings *RankingUseCase, envelopes *EnvelopeUseCase, metrics *metrics.Metrics) *RelayUseCase {
	return &RelayUseCase{
		rankings:  rankings,
		envelopes: envelopes,
		metrics:   metrics,
	}
}

// Relay verifies callerID against a freshly computed ranking and creates a new
// envelope with the same parameters, funded by the caller.
func (uc *RelayUseCase) Relay(ctx context.Context, envelopeID string, callerID int64) (*domain.Envelope, error) {
	if envelopeID == "" {
		return nil, fmt.Errorf("%w: envelope id is required", domain.ErrValidation)
	}

	source, ranking, err := uc.rankings.resolve(ctx, envelopeID)
	if err != nil {
		uc.count(err)
		return nil, err
	}

	if !ranking.IsLuckyKing(callerID) {
		uc.count(domain.ErrNotLuckyKing)
		return nil, domain.ErrNotLuckyKing
	}

	minUnit := source.MinUnit
	env, err := uc.envelopes.CreateEnvelope(ctx, CreateEnvelopeInput{
		ChatID:      source.ChatID,
		SenderID:    callerID,
		Asset:       source.Asset,
		Total:       source.TotalAmount,
		Shares:      source.ShareCount,
		MinUnit:     &minUnit,
		Note:        source.Note,
		relayedFrom: source.ID,
	})
	if err != nil {
		uc.count(err)
		return nil, err
	}

	uc.count(nil)
	return env, nil
}

func (uc *RelayUseCase) count(err error) {
	if uc.metrics == nil {
		return
	}

	status := metrics.StatusSuccess
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadyRelayed):
		status = metrics.StatusDuplicate
	case errors.Is(err, domain.ErrEnvelopeNotFound):
		status = metrics.StatusNotFound
	case IsRetryable(err):
		status = metrics.StatusUnexpected
	default:
		status = metrics.StatusRejected
	}
	uc.metrics.Relays.WithLabelValues(status).Inc()
}
