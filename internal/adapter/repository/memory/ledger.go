package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Create appends an entry. Entries are never updated.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	t, err := r.store.tx(tx)
	if err != nil {
		return err
	}

	r.store.entries = append(r.store.entries, cloneEntry(entry))
	t.onRollback(func() { r.store.entries = r.store.entries[:len(r.store.entries)-1] })
	return nil
}

// ListByUser returns entries newest first. An empty asset matches all assets.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64, asset string, limit, offset int) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	err := r.store.read(ctx, func() error {
		for i := len(r.store.entries) - 1; i >= 0; i-- {
			e := r.store.entries[i]
			if e.UserID == userID && (asset == "" || e.Asset == asset) {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (r *LedgerRepository) ListByRef(ctx context.Context, refType domain.RefType, refID string) ([]*domain.LedgerEntry, error) {
	var out []*domain.LedgerEntry
	err := r.store.read(ctx, func() error {
		for _, e := range r.store.entries {
			if e.RefType == refType && e.RefID == refID {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepository) SumByUser(ctx context.Context, userID int64, asset string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.store.read(ctx, func() error {
		for _, e := range r.store.entries {
			if e.UserID == userID && e.Asset == asset {
				sum = sum.Add(e.Delta)
			}
		}
		return nil
	})
	return sum, err
}

// FindDrift compares every snapshot with its entry sum, including entries
// that have no snapshot at all.
func (r *LedgerRepository) FindDrift(ctx context.Context) ([]domain.BalanceDrift, error) {
	var out []domain.BalanceDrift
	err := r.store.read(ctx, func() error {
		sums := make(map[balanceKey]decimal.Decimal)
		for _, e := range r.store.entries {
			key := balanceKey{userID: e.UserID, asset: e.Asset}
			sums[key] = sums[key].Add(e.Delta)
		}

		seen := make(map[balanceKey]bool, len(r.store.balances))
		for key, b := range r.store.balances {
			seen[key] = true
			if sum := sums[key]; !sum.Equal(b.Amount) {
				out = append(out, domain.BalanceDrift{UserID: key.userID, Asset: key.asset, Recorded: b.Amount, Calculated: sum})
			}
		}
		for key, sum := range sums {
			if !seen[key] && !sum.IsZero() {
				out = append(out, domain.BalanceDrift{UserID: key.userID, Asset: key.asset, Recorded: decimal.Zero, Calculated: sum})
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Asset < out[j].Asset
	})
	return out, err
}
