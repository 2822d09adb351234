package usecase

import (
	"context"

	"github.com/iho/hongbao/internal/domain"
)

// RankingUseCase resolves the claim ranking of an envelope. It never writes.
type RankingUseCase struct {
	envelopeRepo EnvelopeRepository
	claimRepo    ClaimRepository
}

func NewRankingUseCase(envelopeRepo EnvelopeRepository, claimRepo ClaimRepository) *RankingUseCase {
	return &RankingUseCase{
		envelopeRepo: envelopeRepo,
		claimRepo:    claimRepo,
	}
}

// Rank returns the envelope's claims ordered by amount. LuckyKing is nil until
// the envelope is finished.
func (uc *RankingUseCase) Rank(ctx context.Context, envelopeID string) (*domain.Ranking, error) {
	_, ranking, err := uc.resolve(ctx, envelopeID)
	if err != nil {
		return nil, err
	}
	return ranking, nil
}

func (uc *RankingUseCase) resolve(ctx context.Context, envelopeID string) (*domain.Envelope, *domain.Ranking, error) {
	env, err := uc.envelopeRepo.GetByID(ctx, envelopeID)
	if err != nil {
		return nil, nil, classify(err)
	}

	claims, err := uc.claimRepo.ListByEnvelope(ctx, envelopeID)
	if err != nil {
		return nil, nil, classify(err)
	}

	return env, domain.NewRanking(env, claims), nil
}
