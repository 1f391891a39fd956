package solana

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// SOLDecimals is the number of fractional digits between SOL and lamports.
const SOLDecimals = 9

// MaxTokenDecimals is the largest decimal precision accepted for a new mint.
const MaxTokenDecimals = 9

var maxUint64 = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// SOLToLamports converts a positive SOL amount to lamports.
// Amounts with sub-lamport precision or that overflow uint64 are rejected.
func SOLToLamports(amount decimal.Decimal) (uint64, error) {
	if !amount.IsPositive() {
		return 0, validationErrorf("Amount must be greater than zero.")
	}
	return toBaseUnits(amount, SOLDecimals, "Amount")
}

// LamportsToSOL converts lamports to SOL without rounding.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SOLDecimals)
}

// FormatSOL renders lamports as a SOL amount with trailing zeros trimmed.
func FormatSOL(lamports uint64) string {
	return LamportsToSOL(lamports).String()
}

// TokenBaseUnits converts a whole-token supply to base units: supply × 10^decimals.
func TokenBaseUnits(supply decimal.Decimal, decimals uint8) (uint64, error) {
	if !supply.IsPositive() {
		return 0, validationErrorf("Total supply must be greater than zero.")
	}
	return toBaseUnits(supply, int32(decimals), "Total supply")
}

func toBaseUnits(amount decimal.Decimal, decimals int32, field string) (uint64, error) {
	units := amount.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, validationErrorf("%s has more than %d decimal places.", field, decimals)
	}
	if units.GreaterThan(maxUint64) {
		return 0, validationErrorf("%s is too large.", field)
	}
	return units.BigInt().Uint64(), nil
}
