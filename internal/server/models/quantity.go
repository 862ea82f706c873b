package models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// QuantityScale is the number of Quantity units in one whole unit.
const QuantityScale = 1000

// Quantity is a non-negative fixed-point amount with three decimal places,
// stored as a count of thousandths. Weights and points both use it so that
// weight × rate stays exact.
type Quantity int64

var (
	errNotFinite     = errors.New("quantity is not a finite number")
	errTooPrecise    = errors.New("quantity has more than 3 decimal places")
	errOutOfRange    = errors.New("quantity out of range")
	maxQuantityFloat = float64(math.MaxInt64 / QuantityScale)
)

// ParseQuantity converts a decimal number into a Quantity.
// Values with more than three decimals, NaN/Inf, or magnitudes that would
// overflow are rejected. The sign is preserved, validation of positivity is
// left to the caller.
func ParseQuantity(n json.Number) (Quantity, error) {
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return 0, err
	}
	return QuantityFromFloat(f)
}

// QuantityFromFloat converts f, see ParseQuantity.
func QuantityFromFloat(f float64) (Quantity, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	if math.Abs(f) > maxQuantityFloat {
		return 0, errOutOfRange
	}
	scaled := f * QuantityScale
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > 1e-6 {
		return 0, errTooPrecise
	}
	return Quantity(rounded), nil
}

// Units builds a Quantity from a whole number.
func Units(n int64) Quantity { return Quantity(n * QuantityScale) }

// Mul multiplies q by an integer rate.
func (q Quantity) Mul(rate int64) Quantity { return Quantity(int64(q) * rate) }

// Float64 returns q in whole units.
func (q Quantity) Float64() float64 { return float64(q) / QuantityScale }

func (q Quantity) String() string {
	return strconv.FormatFloat(q.Float64(), 'f', -1, 64)
}

// MarshalJSON renders q as a plain JSON number in whole units.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a JSON number in whole units.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	v, err := ParseQuantity(json.Number(b))
	if err != nil {
		return err
	}
	*q = v
	return nil
}
