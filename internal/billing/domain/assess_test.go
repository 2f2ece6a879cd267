package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscountCents(t *testing.T) {
	got, err := DiscountCents(100000, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), got)

	got, err = DiscountCents(100000, 0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)

	// 12.5% of 333 cents = 41.625 -> 42.
	got, err = DiscountCents(333, 12.5)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = DiscountCents(100, -1)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
	_, err = DiscountCents(100, 101)
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestAssess_DiscountNeverTouchesSurcharge(t *testing.T) {
	policy := DefaultSurchargePolicy()
	jan := mustMonth(t, "2024-01")
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := Assess(jan, 100000, 10, policy, at)
	assert.NoError(t, err)

	assert.Equal(t, StageDelinquent, got.Stage)
	assert.Equal(t, int64(100000), got.BasicCents)
	// Surcharge computed on the undiscounted basic.
	assert.Equal(t, int64(15500), got.SurchargeCents)
	assert.Equal(t, int64(10000), got.DiscountCents)
	assert.Equal(t, int64(105500), got.TotalCents)
}

func TestAssess_OnTime(t *testing.T) {
	policy := DefaultSurchargePolicy()
	jan := mustMonth(t, "2024-01")
	at := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	got, err := Assess(jan, 4500, 0, policy, at)
	assert.NoError(t, err)
	assert.Equal(t, StageOnTime, got.Stage)
	assert.Equal(t, int64(4500), got.TotalCents)
}

func TestMonthOrdering(t *testing.T) {
	a := mustMonth(t, "2023-12")
	b := mustMonth(t, "2024-01")
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.Equal(t, "2024-01", b.String())
	assert.Equal(t, b, a.Add(1))

	_, err := ParseMonth("2024-13")
	assert.ErrorIs(t, err, ErrInvalidMonth)
}
