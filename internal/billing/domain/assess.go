package domain

import "time"

// Assessment is one bill's charges as of a specific instant. Until a bill is
// settled the surcharge is a view, not a fact: it must be recomputed at every
// evaluation point, and only settlement freezes it.
type Assessment struct {
	Stage          SurchargeStage
	BasicCents     int64
	SurchargeCents int64
	DiscountCents  int64
	TotalCents     int64
}

// Assess composes the surcharge clock and the discount over a fixed basic
// amount: total = basic + surcharge(at) - discount.
func Assess(billed Month, basicCents int64, discountPercent float64, policy SurchargePolicy, at time.Time) (Assessment, error) {
	stage, surcharge := policy.Evaluate(billed, basicCents, at)
	discount, err := DiscountCents(basicCents, discountPercent)
	if err != nil {
		return Assessment{}, err
	}
	return Assessment{
		Stage:          stage,
		BasicCents:     basicCents,
		SurchargeCents: surcharge,
		DiscountCents:  discount,
		TotalCents:     basicCents + surcharge - discount,
	}, nil
}
