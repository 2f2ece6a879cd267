package domain

import "time"

// SurchargeStage classifies how late a bill is at an evaluation instant.
type SurchargeStage string

const (
	StageOnTime     SurchargeStage = "on_time"
	StageLate       SurchargeStage = "late"       // past due date, within the due month
	StageDelinquent SurchargeStage = "delinquent" // past the end of the due month
)

// SurchargePolicy parameterizes the late-payment state machine. Percents are
// whole percentages (10 means 10%).
type SurchargePolicy struct {
	DueDay        int
	Stage1Percent float64
	Stage2Percent float64
}

func DefaultSurchargePolicy() SurchargePolicy {
	return SurchargePolicy{DueDay: 20, Stage1Percent: 10, Stage2Percent: 5}
}

// DueDate is 00:00 UTC on the policy's due day of the month following the
// billed month. Payment on the due date itself is still on time.
func (p SurchargePolicy) DueDate(billed Month) time.Time {
	day := p.DueDay
	if day < 1 || day > 28 {
		day = 20
	}
	next := billed.Add(1)
	return time.Date(next.Year, next.Month, day, 0, 0, 0, 0, time.UTC)
}

// Evaluate classifies the bill and returns the surcharge in cents. It is a
// pure function of (billed month, basic amount, evaluation instant): callers
// must pass the instant explicitly rather than reading the wall clock here.
//
// Stage 1 adds Stage1Percent of the basic amount. Stage 2 compounds: the
// stage-1 penalty plus Stage2Percent of (basic + stage-1 penalty). Each
// percentage is rounded half-up to cents exactly once.
func (p SurchargePolicy) Evaluate(billed Month, basicCents int64, at time.Time) (SurchargeStage, int64) {
	at = at.UTC()
	dueDate := p.DueDate(billed)
	if !at.After(dueDate) {
		return StageOnTime, 0
	}

	stage1 := PercentCents(basicCents, p.Stage1Percent)

	// The grace window is the remainder of the due month.
	graceEnd := billed.Add(2).Start()
	if at.Before(graceEnd) {
		return StageLate, stage1
	}

	stage2 := PercentCents(basicCents+stage1, p.Stage2Percent)
	return StageDelinquent, stage1 + stage2
}
