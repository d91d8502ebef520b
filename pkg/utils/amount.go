package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sigweihq/x402chat/pkg/constants"
)

// ParseAmount parses a human-readable, non-negative decimal amount
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Zero, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}

	return dec, nil
}

// ParseUnits converts a human-readable amount into the asset's smallest unit.
// Amounts carrying more precision than the asset supports are rejected.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	dec, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}

	shifted := dec.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s exceeds %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FormatUnits converts a smallest-unit value into a human-readable amount
func FormatUnits(value *big.Int, decimals int32) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -decimals).String()
}

// IsSufficient reports whether balance covers required. Equality counts as sufficient.
func IsSufficient(balance, required string) (bool, error) {
	have, err := ParseAmount(balance)
	if err != nil {
		return false, fmt.Errorf("invalid balance: %w", err)
	}

	need, err := ParseAmount(required)
	if err != nil {
		return false, fmt.Errorf("invalid required amount: %w", err)
	}

	return have.GreaterThanOrEqual(need), nil
}

// FormatUSDCAmount formats an amount for display with two decimal places
func FormatUSDCAmount(amount string) string {
	dec, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		dec = decimal.Zero
	}
	return fmt.Sprintf("%s %s", dec.StringFixed(2), constants.USDCSymbol)
}

// ParseDisplayAmount parses a value produced by FormatUSDCAmount back into a number
func ParseDisplayAmount(display string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(display), constants.USDCSymbol))

	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid display amount %q: %w", display, err)
	}

	value, _ := dec.Float64()
	return value, nil
}
