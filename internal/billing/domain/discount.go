package domain

import "errors"

var ErrInvalidDiscount = errors.New("invalid_discount")

// DiscountCents applies a customer's percentage discount to the basic amount.
// The discount never touches the surcharge: a late, discounted customer still
// pays the full penalty on the undiscounted basic.
func DiscountCents(basicCents int64, percent float64) (int64, error) {
	if percent < 0 || percent > 100 {
		return 0, ErrInvalidDiscount
	}
	return PercentCents(basicCents, percent), nil
}
