package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	DefaultMinShares = 1
	DefaultMaxShares = 100
	DefaultMaxTotal  = "1000000000" // 1 billion
	MaxNoteLength    = 128
)

// Limits bounds envelope parameters. Zero values fall back to the defaults.
type Limits struct {
	MinShares int
	MaxShares int
	MaxTotal  decimal.Decimal
}

// DefaultLimits returns the stock envelope limits.
func DefaultLimits() Limits {
	return Limits{
		MinShares: DefaultMinShares,
		MaxShares: DefaultMaxShares,
		MaxTotal:  decimal.RequireFromString(DefaultMaxTotal),
	}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MinShares <= 0 {
		l.MinShares = d.MinShares
	}
	if l.MaxShares <= 0 {
		l.MaxShares = d.MaxShares
	}
	if !l.MaxTotal.IsPositive() {
		l.MaxTotal = d.MaxTotal
	}
	return l
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// EnvelopeSpec is a validated set of envelope parameters.
type EnvelopeSpec struct {
	Asset   Asset
	Total   decimal.Decimal
	Shares  int
	MinUnit decimal.Decimal
	Note    string
}

// ValidateEnvelope checks the raw create parameters and resolves the asset and
// min unit. Feasibility of the split is reported as ErrAllocationInfeasible.
func ValidateEnvelope(assetCode string, total decimal.Decimal, shares int, minUnit *decimal.Decimal, note string, limits Limits) (EnvelopeSpec, error) {
	limits = limits.normalized()

	asset, err := LookupAsset(assetCode)
	if err != nil {
		return EnvelopeSpec{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if shares < limits.MinShares || shares > limits.MaxShares {
		return EnvelopeSpec{}, invalidf("shares must be between %d and %d", limits.MinShares, limits.MaxShares)
	}

	if total.LessThan(asset.MinTotal) {
		return EnvelopeSpec{}, invalidf("total must be at least %s %s", asset.Format(asset.MinTotal), asset.Code)
	}
	if total.GreaterThan(limits.MaxTotal) {
		return EnvelopeSpec{}, invalidf("total must not exceed %s", limits.MaxTotal)
	}
	if !asset.IsRepresentable(total) {
		return EnvelopeSpec{}, invalidf("total %s has more than %d decimals for %s", total, asset.Scale, asset.Code)
	}

	unit := asset.DefaultMinUnit
	if minUnit != nil {
		unit = *minUnit
		if unit.LessThan(asset.Increment()) {
			return EnvelopeSpec{}, invalidf("min unit must be at least %s", asset.Format(asset.Increment()))
		}
		if !asset.IsRepresentable(unit) {
			return EnvelopeSpec{}, invalidf("min unit %s has more than %d decimals for %s", unit, asset.Scale, asset.Code)
		}
	}

	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return EnvelopeSpec{}, invalidf("note exceeds %d characters", MaxNoteLength)
	}

	if unit.Mul(decimal.NewFromInt(int64(shares))).GreaterThan(total) {
		return EnvelopeSpec{}, ErrAllocationInfeasible
	}

	return EnvelopeSpec{
		Asset:   asset,
		Total:   total,
		Shares:  shares,
		MinUnit: unit,
		Note:    note,
	}, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
