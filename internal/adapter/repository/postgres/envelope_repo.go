package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/postgres/generated"
	"github.com/iho/hongbao/internal/usecase"
)

// EnvelopeRepository implements usecase.EnvelopeRepository.
type EnvelopeRepository struct {
	queries *generated.Queries
}

// NewEnvelopeRepository creates a new EnvelopeRepository.
func NewEnvelopeRepository(db generated.DBTX) *EnvelopeRepository {
	return &EnvelopeRepository{queries: generated.New(db)}
}

// Create inserts an envelope. The partial unique index on relayed_from turns a
// second relay of the same source into domain.ErrAlreadyRelayed.
func (r *EnvelopeRepository) Create(ctx context.Context, tx usecase.Transaction, env *domain.Envelope) error {
	err := queriesFor(tx).CreateEnvelope(ctx, generated.CreateEnvelopeParams{
		ID:              env.ID,
		ChatID:          env.ChatID,
		SenderID:        env.SenderID,
		Asset:           env.Asset,
		TotalAmount:     decimalToNumeric(env.TotalAmount),
		MinUnit:         decimalToNumeric(env.MinUnit),
		RemainingAmount: decimalToNumeric(env.RemainingAmount),
		ShareCount:      int32(env.ShareCount),
		RemainingShares: int32(env.RemainingShares),
		Status:          string(env.Status),
		Note:            env.Note,
		RelayedFrom:     textOrNull(env.RelayedFrom),
		Version:         env.Version,
		CreatedAt:       timeToPgTimestamptz(env.CreatedAt),
	})
	if constraint, ok := uniqueViolation(err); ok && constraint == constraintRelayedFrom {
		return domain.ErrAlreadyRelayed
	}

	return err
}

// GetByID retrieves an envelope by ID.
func (r *EnvelopeRepository) GetByID(ctx context.Context, id string) (*domain.Envelope, error) {
	row, err := r.queries.GetEnvelopeByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnvelopeNotFound
		}

		return nil, err
	}

	return rowToEnvelope(row), nil
}

// GetByIDForUpdate retrieves an envelope by ID with a FOR UPDATE lock.
func (r *EnvelopeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Envelope, error) {
	row, err := queriesFor(tx).GetEnvelopeByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnvelopeNotFound
		}

		return nil, err
	}

	return rowToEnvelope(row), nil
}

// Decrement grants one share with a conditional update on status and remaining shares.
func (r *EnvelopeRepository) Decrement(ctx context.Context, tx usecase.Transaction, id string, expectedShares int, amount decimal.Decimal, at time.Time) (*domain.Envelope, error) {
	row, err := queriesFor(tx).DecrementEnvelope(ctx, generated.DecrementEnvelopeParams{
		ID:              id,
		RemainingShares: int32(expectedShares),
		Amount:          decimalToNumeric(amount),
		FinishedAt:      timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnvelopeFinished
		}

		return nil, err
	}

	return rowToEnvelope(row), nil
}

// Cancel flips an active envelope to cancelled.
func (r *EnvelopeRepository) Cancel(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (*domain.Envelope, error) {
	row, err := queriesFor(tx).CancelEnvelope(ctx, generated.CancelEnvelopeParams{
		ID:          id,
		CancelledAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEnvelopeNotActive
		}

		return nil, err
	}

	return rowToEnvelope(row), nil
}

// ListByChat lists a chat's envelopes newest first.
func (r *EnvelopeRepository) ListByChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Envelope, error) {
	rows, err := r.queries.ListEnvelopesByChat(ctx, generated.ListEnvelopesByChatParams{
		ChatID: chatID,
		Limit:  pageLimit(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEnvelopes(rows), nil
}

// ListActiveBefore lists active envelopes created before the cutoff, oldest first.
func (r *EnvelopeRepository) ListActiveBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Envelope, error) {
	rows, err := r.queries.ListActiveEnvelopesBefore(ctx, generated.ListActiveEnvelopesBeforeParams{
		CreatedAt: timeToPgTimestamptz(before),
		Limit:     pageLimit(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEnvelopes(rows), nil
}

func rowsToEnvelopes(rows []generated.Envelope) []*domain.Envelope {
	envelopes := make([]*domain.Envelope, 0, len(rows))
	for _, row := range rows {
		envelopes = append(envelopes, rowToEnvelope(row))
	}

	return envelopes
}

func rowToEnvelope(row generated.Envelope) *domain.Envelope {
	return &domain.Envelope{
		ID:              row.ID,
		ChatID:          row.ChatID,
		SenderID:        row.SenderID,
		Asset:           row.Asset,
		TotalAmount:     numericToDecimal(row.TotalAmount),
		MinUnit:         numericToDecimal(row.MinUnit),
		RemainingAmount: numericToDecimal(row.RemainingAmount),
		ShareCount:      int(row.ShareCount),
		RemainingShares: int(row.RemainingShares),
		Status:          domain.EnvelopeStatus(row.Status),
		Note:            row.Note,
		RelayedFrom:     row.RelayedFrom.String,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt.Time,
		FinishedAt:      pgTimestamptzToTimePtr(row.FinishedAt),
		CancelledAt:     pgTimestamptzToTimePtr(row.CancelledAt),
	}
}
