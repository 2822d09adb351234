package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/infrastructure/postgres/generated"
	"github.com/iho/hongbao/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// Create appends an entry within a transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return queriesFor(tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:           entry.ID,
		UserID:       entry.UserID,
		Asset:        entry.Asset,
		Delta:        decimalToNumeric(entry.Delta),
		BalanceAfter: decimalToNumeric(entry.BalanceAfter),
		RefType:      string(entry.RefType),
		RefID:        entry.RefID,
		Note:         entry.Note,
		CreatedAt:    timeToPgTimestamptz(entry.CreatedAt),
	})
}

// ListByUser returns entries newest first. An empty asset matches all assets.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, asset string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByUser(ctx, generated.ListLedgerEntriesByUserParams{
		UserID: userID,
		Asset:  asset,
		Limit:  pageLimit(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

func (r *LedgerRepository) ListByRef(ctx context.Context, refType domain.RefType, refID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByRef(ctx, generated.ListLedgerEntriesByRefParams{
		RefType: string(refType),
		RefID:   refID,
	})
	if err != nil {
		return nil, err
	}

	return rowsToEntries(rows), nil
}

func (r *LedgerRepository) SumByUser(ctx context.Context, userID int64, asset string) (decimal.Decimal, error) {
	total, err := r.queries.SumLedgerByUser(ctx, generated.SumLedgerByUserParams{UserID: userID, Asset: asset})
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

// FindDrift compares every snapshot with its entry sum in a single full outer join.
func (r *LedgerRepository) FindDrift(ctx context.Context) ([]domain.BalanceDrift, error) {
	rows, err := r.queries.FindBalanceDrift(ctx)
	if err != nil {
		return nil, err
	}

	drift := make([]domain.BalanceDrift, 0, len(rows))
	for _, row := range rows {
		drift = append(drift, domain.BalanceDrift{
			UserID:     row.UserID,
			Asset:      row.Asset,
			Recorded:   numericToDecimal(row.Recorded),
			Calculated: numericToDecimal(row.Calculated),
		})
	}

	return drift, nil
}

func rowsToEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.LedgerEntry{
			ID:           row.ID,
			UserID:       row.UserID,
			Asset:        row.Asset,
			Delta:        numericToDecimal(row.Delta),
			BalanceAfter: numericToDecimal(row.BalanceAfter),
			RefType:      domain.RefType(row.RefType),
			RefID:        row.RefID,
			Note:         row.Note,
			CreatedAt:    row.CreatedAt.Time,
		})
	}

	return entries
}
