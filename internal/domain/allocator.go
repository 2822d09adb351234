package domain

import (
	cryptorand "crypto/rand"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

// RandomSource yields uniformly distributed integers in [0, n).
type RandomSource interface {
	Int64N(n int64) int64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Int64N(n int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Int64N(n)
}

// NewSeededSource returns a deterministic source for tests and replays.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewSecureSource returns a ChaCha8 stream seeded from the operating system.
func NewSecureSource() RandomSource {
	var seed [32]byte
	_, _ = cryptorand.Read(seed[:])
	return &lockedSource{r: rand.New(rand.NewChaCha8(seed))}
}

// SplitAllocator splits envelope totals into random shares using the
// double-mean method. All arithmetic happens on integer counts of the asset
// increment.
type SplitAllocator struct {
	src RandomSource
}

// NewSplitAllocator creates an allocator. A nil source selects NewSecureSource.
func NewSplitAllocator(src RandomSource) *SplitAllocator {
	if src == nil {
		src = NewSecureSource()
	}
	return &SplitAllocator{src: src}
}

// Next draws the next share from what is left of an envelope. A minUnit finer
// than the asset increment is rejected with ErrValidation.
//
// With one share left the whole remainder is returned. Otherwise the draw is
// uniform in [minUnit, min(2*remaining/sharesLeft, remaining-minUnit*(sharesLeft-1))]
// so every later share can still receive at least minUnit.
func (a *SplitAllocator) Next(asset Asset, remaining decimal.Decimal, sharesLeft int, minUnit decimal.Decimal) (decimal.Decimal, error) {
	if sharesLeft <= 0 {
		return decimal.Zero, ErrEnvelopeFinished
	}
	if !asset.IsRepresentable(minUnit) {
		return decimal.Zero, invalidf("min unit %s is not a multiple of %s", minUnit, asset.Format(asset.Increment()))
	}

	rem := asset.ToUnits(asset.Quantize(remaining))
	unit := asset.ToUnits(minUnit)
	if unit < 1 {
		unit = 1
	}
	left := int64(sharesLeft)

	if unit*left > rem {
		return decimal.Zero, ErrAllocationInfeasible
	}

	if left == 1 {
		return asset.FromUnits(rem), nil
	}

	upper := 2 * rem / left
	if safe := rem - unit*(left-1); upper > safe {
		upper = safe
	}
	if upper < unit {
		upper = unit
	}

	return asset.FromUnits(unit + a.src.Int64N(upper-unit+1)), nil
}

// Allocate produces the full split of total into shares values.
func (a *SplitAllocator) Allocate(asset Asset, total decimal.Decimal, shares int, minUnit decimal.Decimal) ([]decimal.Decimal, error) {
	if shares <= 0 || !total.IsPositive() {
		return nil, invalidf("total and shares must be positive")
	}
	if !asset.IsRepresentable(minUnit) {
		return nil, invalidf("min unit %s is not a multiple of %s", minUnit, asset.Format(asset.Increment()))
	}
	if minUnit.Mul(decimal.NewFromInt(int64(shares))).GreaterThan(total) {
		return nil, ErrAllocationInfeasible
	}

	out := make([]decimal.Decimal, 0, shares)
	remaining := asset.Quantize(total)
	for left := shares; left > 0; left-- {
		amount, err := a.Next(asset, remaining, left, minUnit)
		if err != nil {
			return nil, err
		}
		out = append(out, amount)
		remaining = remaining.Sub(amount)
	}

	return out, nil
}
