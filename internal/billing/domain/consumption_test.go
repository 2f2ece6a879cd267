package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsumption(t *testing.T) {
	got, err := Consumption(100, 105)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), got)

	got, err = Consumption(100, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), got)

	_, err = Consumption(15, 10)
	assert.ErrorIs(t, err, ErrInvalidReading)

	_, err = Consumption(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidReading)
}

func TestBasicCents_Tiering(t *testing.T) {
	rate := RateSchedule{Tier1Cents: 2000, Tier2Cents: 2500, LifelineM3: 3}

	cases := []struct {
		name        string
		consumption int64
		want        int64
	}{
		{"zero consumption pays the minimum charge", 0, 2000},
		{"one cubic meter", 1, 2000},
		{"lifeline boundary", 3, 6000},
		{"first unit above lifeline", 4, 8500},
		{"five cubic meters", 5, 11000},
		{"large consumption", 50, 6000 + 47*2500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rate.BasicCents(tc.consumption)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBasicCents_InvalidRate(t *testing.T) {
	rate := RateSchedule{Tier1Cents: 0, Tier2Cents: 2500}
	_, err := rate.BasicCents(5)
	assert.ErrorIs(t, err, ErrInvalidRate)
}
