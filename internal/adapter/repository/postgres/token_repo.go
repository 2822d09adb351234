package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/postgres/generated"
	"github.com/iho/hongbao/internal/usecase"
)

// TokenRepository implements usecase.TokenRepository on the idempotency_tokens table.
type TokenRepository struct {
	queries *generated.Queries
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(db generated.DBTX) *TokenRepository {
	return &TokenRepository{queries: generated.New(db)}
}

func (r *TokenRepository) IssueRefund(ctx context.Context, tx usecase.Transaction, ticket *domain.RefundTicket) (bool, error) {
	n, err := queriesFor(tx).InsertRefundTicket(ctx, generated.InsertRefundTicketParams{
		Token:     ticket.Token,
		RefID:     ticket.RefID,
		UserID:    pgtype.Int8{Int64: ticket.UserID, Valid: true},
		Asset:     textOrNull(ticket.Asset),
		Amount:    decimalToNumeric(ticket.Amount),
		RefType:   textOrNull(string(ticket.RefType)),
		CreatedAt: timeToPgTimestamptz(ticket.CreatedAt),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// ConsumeRefund flips refunded with a conditional update. When nothing matched,
// a second read tells a consumed ticket apart from a missing one.
func (r *TokenRepository) ConsumeRefund(ctx context.Context, tx usecase.Transaction, token string, at time.Time) (*domain.RefundTicket, bool, error) {
	q := queriesFor(tx)

	row, err := q.ConsumeRefundTicket(ctx, generated.ConsumeRefundTicketParams{
		Token:      token,
		RefundedAt: timeToPgTimestamptz(at),
	})
	if err == nil {
		return rowToTicket(row), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	row, err = q.GetRefundTicket(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrRefundTicketNotFound
		}

		return nil, false, err
	}

	return rowToTicket(row), false, nil
}

func (r *TokenRepository) GetRefund(ctx context.Context, token string) (*domain.RefundTicket, error) {
	row, err := r.queries.GetRefundTicket(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRefundTicketNotFound
		}

		return nil, err
	}

	return rowToTicket(row), nil
}

// AcquireNotification inserts the token outside any transaction, so a taken
// token stays taken even if delivery later fails.
func (r *TokenRepository) AcquireNotification(ctx context.Context, token, refID string, at time.Time) (bool, error) {
	n, err := r.queries.InsertNotificationToken(ctx, generated.InsertNotificationTokenParams{
		Token:     token,
		RefID:     refID,
		CreatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func rowToTicket(row generated.IdempotencyToken) *domain.RefundTicket {
	return &domain.RefundTicket{
		Token:      row.Token,
		UserID:     row.UserID.Int64,
		Asset:      row.Asset.String,
		Amount:     numericToDecimal(row.Amount),
		RefType:    domain.RefType(row.RefType.String),
		RefID:      row.RefID,
		Refunded:   row.Refunded,
		CreatedAt:  row.CreatedAt.Time,
		RefundedAt: pgTimestamptzToTimePtr(row.RefundedAt),
	}
}
