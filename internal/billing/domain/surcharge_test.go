package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mustMonth(t *testing.T, v string) Month {
	t.Helper()
	m, err := ParseMonth(v)
	assert.NoError(t, err)
	return m
}

func TestSurcharge_Boundaries(t *testing.T) {
	policy := DefaultSurchargePolicy()
	jan := mustMonth(t, "2024-01")

	assert.Equal(t, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), policy.DueDate(jan))

	cases := []struct {
		name      string
		at        time.Time
		wantStage SurchargeStage
		wantCents int64
	}{
		{"day before due date", time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC), StageOnTime, 0},
		{"on the due date", time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), StageOnTime, 0},
		{"just past the due date", time.Date(2024, 2, 20, 0, 0, 1, 0, time.UTC), StageLate, 10000},
		{"next day", time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC), StageLate, 10000},
		{"last instant of grace month", time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), StageLate, 10000},
		{"first instant past grace", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), StageDelinquent, 15500},
		{"deep delinquency", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), StageDelinquent, 15500},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stage, cents := policy.Evaluate(jan, 100000, tc.at)
			assert.Equal(t, tc.wantStage, stage)
			assert.Equal(t, tc.wantCents, cents)
		})
	}
}

func TestSurcharge_Deterministic(t *testing.T) {
	policy := DefaultSurchargePolicy()
	dec := mustMonth(t, "2023-12")
	at := time.Date(2024, 2, 10, 12, 30, 0, 0, time.UTC)

	stage1, cents1 := policy.Evaluate(dec, 73341, at)
	for i := 0; i < 100; i++ {
		stage, cents := policy.Evaluate(dec, 73341, at)
		assert.Equal(t, stage1, stage)
		assert.Equal(t, cents1, cents)
	}
	// December bills are delinquent from 2024-02-01.
	assert.Equal(t, StageDelinquent, stage1)
}

func TestSurcharge_YearWrap(t *testing.T) {
	policy := DefaultSurchargePolicy()
	dec := mustMonth(t, "2024-12")

	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), policy.DueDate(dec))

	stage, _ := policy.Evaluate(dec, 5000, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, StageDelinquent, stage)
}

func TestSurcharge_RoundsHalfUpOnce(t *testing.T) {
	policy := DefaultSurchargePolicy()
	jan := mustMonth(t, "2024-01")
	late := time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC)
	delinquent := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	// 10% of 105 cents = 10.5 -> 11.
	_, cents := policy.Evaluate(jan, 105, late)
	assert.Equal(t, int64(11), cents)

	// stage1 = 11, 5% of 116 = 5.8 -> 6; total 17.
	_, cents = policy.Evaluate(jan, 105, delinquent)
	assert.Equal(t, int64(17), cents)
}
