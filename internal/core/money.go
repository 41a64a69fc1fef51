// Package core holds the domain model and the pure aggregation logic.
//
// This file contains conversions between the integer-cents representation
// used internally and the decimal amounts exchanged on the wire.
package core

import (
	"math"
)

// MoneyFromAmount converts a decimal amount (e.g. 12.34) to Money with
// half-up rounding on fractional cents. Negative, NaN and infinite
// amounts are rejected.
//
// Examples:
//
//	MoneyFromAmount(12.34)  -> {1234}, nil
//	MoneyFromAmount(12.345) -> {1235}, nil (rounds up)
//	MoneyFromAmount(-1)     -> {}, ErrNegativeAmount
func MoneyFromAmount(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidAmount
	}
	if amount < 0 {
		return Money{}, ErrNegativeAmount
	}
	// Guard against overflow when scaling to cents.
	const maxSafeAmount = float64(1<<62) / 100
	if amount > maxSafeAmount {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(math.Round(amount * 100))}, nil
}

// Amount returns the decimal value for JSON serialization and display.
// Use cents for arithmetic to avoid floating-point drift.
func (m Money) Amount() float64 {
	return float64(m.Cents) / 100.0
}
