package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the number of decimal places between wei and ether.
const EtherDecimals = 18

// ParseEther converts a decimal ether amount such as "0.55" into wei. Amounts
// with more than 18 fractional digits or a negative sign are rejected.
func ParseEther(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount must be non-negative: %s", value)
	}
	wei := amount.Shift(EtherDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", value, EtherDecimals)
	}
	return wei.BigInt(), nil
}

// FormatEther renders a wei amount as a decimal ether string without trailing
// zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals).String()
}

// FractionToBps converts a decimal fraction ("0.005") into basis points (50).
// Fractions must lie in [0, 1] and resolve to a whole number of basis points.
func FractionToBps(value string) (uint32, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	fraction, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction %q: %w", value, err)
	}
	if fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return 0, fmt.Errorf("fraction %s out of range [0,1]", value)
	}
	bps := fraction.Mul(decimal.NewFromInt(10_000))
	if !bps.Equal(bps.Truncate(0)) {
		return 0, fmt.Errorf("fraction %s is finer than one basis point", value)
	}
	return uint32(bps.IntPart()), nil
}
