package domain

import "errors"

var (
	ErrInvalidReading = errors.New("invalid_reading")
	ErrInvalidRate    = errors.New("invalid_rate")
)

// RateSchedule is the two-tier volumetric rate for a customer classification.
// The first LifelineM3 cubic meters are charged at the tier-1 rate; zero
// consumption still pays one tier-1 unit as the fixed service minimum.
type RateSchedule struct {
	Tier1Cents int64
	Tier2Cents int64
	LifelineM3 int64
}

// Consumption derives billed cubic meters from two meter readings. A current
// reading below the previous one is an operator input error and blocks bill
// creation; it is never floored silently.
func Consumption(previous, current int64) (int64, error) {
	if previous < 0 || current < 0 {
		return 0, ErrInvalidReading
	}
	if current < previous {
		return 0, ErrInvalidReading
	}
	return current - previous, nil
}

// BasicCents prices consumption against the schedule.
func (r RateSchedule) BasicCents(consumption int64) (int64, error) {
	if r.Tier1Cents <= 0 || r.Tier2Cents <= 0 {
		return 0, ErrInvalidRate
	}
	if consumption < 0 {
		return 0, ErrInvalidReading
	}
	lifeline := r.LifelineM3
	if lifeline <= 0 {
		lifeline = 3
	}
	switch {
	case consumption == 0:
		// Minimum charge: one tier-1 unit covers the fixed service fee.
		return r.Tier1Cents, nil
	case consumption <= lifeline:
		return consumption * r.Tier1Cents, nil
	default:
		return lifeline*r.Tier1Cents + (consumption-lifeline)*r.Tier2Cents, nil
	}
}
