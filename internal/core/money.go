// AngelaMos | 2026
// money.go

package core

import (
	"math"
	"strconv"
)

// Cents is a currency amount in minor units. Prices and transaction
// amounts are stored this way so they compare exactly.
type Cents int64

func CentsFromAmount(amount float64) (Cents, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, Invalid("amount is not a number")
	}
	if amount <= 0 {
		return 0, Invalid("amount must be positive")
	}
	if amount > 1_000_000 {
		return 0, Invalid("amount too large")
	}
	return Cents(math.Round(amount * 100)), nil
}

func (c Cents) Amount() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	return strconv.FormatFloat(c.Amount(), 'f', 2, 64)
}
