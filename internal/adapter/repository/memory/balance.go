package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/hongbao/internal/domain"
	"github.com/iho/hongbao/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	store *Store
}

func NewBalanceRepository(store *Store) *BalanceRepository {
	return &BalanceRepository{store: store}
}

func (r *BalanceRepository) Debit(ctx context.Context, tx usecase.Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	key := balanceKey{userID: userID, asset: asset}
	prev, ok := r.store.balances[key]
	if !ok || prev.Amount.LessThan(amount) {
		return decimal.Zero, domain.ErrInsufficientBalance
	}

	next := *prev
	next.Amount = prev.Amount.Sub(amount)
	next.Version++
	next.UpdatedAt = at
	r.store.balances[key] = &next
	t.onRollback(func() { r.store.balances[key] = prev })
	return next.Amount, nil
}

func (r *BalanceRepository) Credit(ctx context.Context, tx usecase.Transaction, userID int64, asset string, amount decimal.Decimal, at time.Time) (decimal.Decimal, error) {
	t, err := r.store.tx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	key := balanceKey{userID: userID, asset: asset}
	prev, ok := r.store.balances[key]

	next := domain.Balance{UserID: userID, Asset: asset, Amount: amount, Version: 1, UpdatedAt: at}
	if ok {
		next = *prev
		next.Amount = prev.Amount.Add(amount)
		next.Version++
		next.UpdatedAt = at
	}

	r.store.balances[key] = &next
	t.onRollback(func() {
		if ok {
			r.store.balances[key] = prev
		} else {
			delete(r.store.balances, key)
		}
	})
	return next.Amount, nil
}

// Get returns a zero balance for users that never held the asset.
func (r *BalanceRepository) Get(ctx context.Context, userID int64, asset string) (*domain.Balance, error) {
	var out *domain.Balance
	err := r.store.read(ctx, func() error {
		if b, ok := r.store.balances[balanceKey{userID: userID, asset: asset}]; ok {
			c := *b
			out = &c
			return nil
		}
		out = &domain.Balance{UserID: userID, Asset: asset, Amount: decimal.Zero}
		return nil
	})
	return out, err
}

func (r *BalanceRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Balance, error) {
	var out []*domain.Balance
	err := r.store.read(ctx, func() error {
		for key, b := range r.store.balances {
			if key.userID == userID {
				c := *b
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, err
}
