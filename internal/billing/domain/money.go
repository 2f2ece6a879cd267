package domain

import "math"

// PercentCents computes percent of an amount in integer cents, rounding
// half-up. Every derived amount (surcharge, discount) is rounded exactly once
// through this helper so repeated evaluation cannot drift.
func PercentCents(amountCents int64, percent float64) int64 {
	if amountCents <= 0 || percent <= 0 {
		return 0
	}
	return int64(math.Floor(float64(amountCents)*percent/100.0 + 0.5))
}
