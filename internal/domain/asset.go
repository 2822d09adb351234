package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetKind separates fixed-point currencies from integer point balances.
type AssetKind string

const (
	AssetKindCurrency AssetKind = "currency"
	AssetKindPoints   AssetKind = "points"
)

// Asset describes how amounts of one balance type are represented.
type Asset struct {
	Code string
	Kind AssetKind
	// Scale is the number of decimal places; 0 for point assets.
	Scale int32
	// MinTotal is the smallest envelope total accepted for the asset.
	MinTotal decimal.Decimal
	// DefaultMinUnit is the smallest share an envelope grants when the sender does not override it.
	DefaultMinUnit decimal.Decimal
}

const (
	AssetUSDT  = "USDT"
	AssetTON   = "TON"
	AssetPOINT = "POINT"
)

var assets = map[string]Asset{
	AssetUSDT: {
		Code:           AssetUSDT,
		Kind:           AssetKindCurrency,
		Scale:          2,
		MinTotal:       decimal.New(1, -2),
		DefaultMinUnit: decimal.New(1, -2),
	},
	AssetTON: {
		Code:           AssetTON,
		Kind:           AssetKindCurrency,
		Scale:          2,
		MinTotal:       decimal.New(1, -2),
		DefaultMinUnit: decimal.New(1, -2),
	},
	AssetPOINT: {
		Code:           AssetPOINT,
		Kind:           AssetKindPoints,
		Scale:          0,
		MinTotal:       decimal.NewFromInt(1),
		DefaultMinUnit: decimal.NewFromInt(1),
	},
}

// LookupAsset resolves an asset code case-insensitively.
func LookupAsset(code string) (Asset, error) {
	a, ok := assets[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, code)
	}
	return a, nil
}

// AssetCodes returns the registered codes in sorted order.
func AssetCodes() []string {
	codes := make([]string, 0, len(assets))
	for code := range assets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Increment is the smallest representable amount of the asset.
func (a Asset) Increment() decimal.Decimal {
	return decimal.New(1, -a.Scale)
}

// Quantize rounds toward zero to the asset increment.
func (a Asset) Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(a.Scale)
}

// IsRepresentable reports whether d needs no rounding for this asset.
func (a Asset) IsRepresentable(d decimal.Decimal) bool {
	return a.Quantize(d).Equal(d)
}

// ToUnits converts an amount into a count of increments. The amount must be representable.
func (a Asset) ToUnits(d decimal.Decimal) int64 {
	return d.Shift(a.Scale).IntPart()
}

// FromUnits converts a count of increments back into an amount.
func (a Asset) FromUnits(units int64) decimal.Decimal {
	return decimal.New(units, -a.Scale)
}

// Format renders an amount with exactly Scale decimals.
func (a Asset) Format(d decimal.Decimal) string {
	return d.StringFixed(a.Scale)
}
