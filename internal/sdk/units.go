package sdk

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a human decimal string like "1.5" into smallest units of
// a currency with the given decimals. More fractional digits than decimals is
// an error rather than a silent truncation.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("units %q: %w", value, ErrParse)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("units %q: %w", value, ErrInvalidAmount)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("units %q has more than %d decimals: %w", value, decimals, ErrInvalidAmount)
	}
	return scaled.BigInt(), nil
}

// FormatUnits renders raw smallest units as a decimal string.
func FormatUnits(raw *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}
