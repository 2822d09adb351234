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

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	queries *generated.Queries
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db generated.DBTX) *BalanceRepository {
	return &BalanceRepository{queries: generated.New(db)}
}

// Debit subtracts amount with a guarded update; a missing or short row yields
// domain.ErrInsufficientBalance.
func (r *BalanceRepository) Debit(ctx context.Context, tx usecase.Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	after, err := queriesFor(tx).DebitBalance(ctx, generated.DebitBalanceParams{
		UserID:    userID,
		Asset:     asset,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrInsufficientBalance
		}

		return decimal.Zero, err
	}

	return numericToDecimal(after), nil
}

// Credit upserts the snapshot row.
func (r *BalanceRepository) Credit(ctx context.Context, tx usecase.Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	after, err := queriesFor(tx).CreditBalance(ctx, generated.CreditBalanceParams{
		UserID:    userID,
		Asset:     asset,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(after), nil
}

// Get returns a zero balance when the user never held the asset.
func (r *BalanceRepository) Get(ctx context.Context, userID int64, asset string) (*domain.Balance, error) {
	row, err := r.queries.GetBalance(ctx, generated.GetBalanceParams{UserID: userID, Asset: asset})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Balance{UserID: userID, Asset: asset, Amount: decimal.Zero}, nil
		}

		return nil, err
	}

	return rowToBalance(row), nil
}

func (r *BalanceRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Balance, error) {
	rows, err := r.queries.ListBalancesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	balances := make([]*domain.Balance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, rowToBalance(row))
	}

	return balances, nil
}

func rowToBalance(row generated.Balance) *domain.Balance {
	return &domain.Balance{
		UserID:    row.UserID,
		Asset:     row.Asset,
		Amount:    numericToDecimal(row.Amount),
		Version:   row.Version,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
