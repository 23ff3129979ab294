package service

import (
	"time"

	"github.com/rasyidev/habitpoint/internal/model"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// GoalStatusResult is the outcome of judging a day's value against its
// target.
type GoalStatusResult struct {
	Status         model.GoalStatus
	CompletionRate int
	CompletedAt    *time.Time
}

// CalculateGoalStatus derives status, completion rate and completion time
// from a recomputed current value. Pure: no I/O, now is injected.
//
// completedAt is monotonic: once set it is preserved across recalculations
// and never overwritten with a later timestamp. A zero current value always
// yields NOT_STARTED and leaves completedAt untouched.
//
// For MAXIMUM goals the rate is inverted: staying at or under the ceiling is
// 100%, and every point over the ceiling erodes the rate toward 0. EXCEEDED
// there means "over the limit", not "over-achieved".
func CalculateGoalStatus(currentValue, targetValue decimal.Decimal, targetType model.TargetType, existingCompletedAt *time.Time, now time.Time) GoalStatusResult {
	res := GoalStatusResult{
		Status:      model.StatusNotStarted,
		CompletedAt: existingCompletedAt,
	}

	if currentValue.IsZero() {
		return res
	}

	markCompleted := func() {
		if res.CompletedAt == nil {
			t := now
			res.CompletedAt = &t
		}
	}

	switch targetType {
	case model.TargetExact:
		res.CompletionRate = ratePercent(currentValue, targetValue)
		switch currentValue.Cmp(targetValue) {
		case 0:
			res.Status = model.StatusCompleted
			markCompleted()
		case 1:
			res.Status = model.StatusExceeded
			markCompleted()
		default:
			res.Status = model.StatusInProgress
		}

	case model.TargetMinimum:
		res.CompletionRate = ratePercent(currentValue, targetValue)
		if currentValue.Cmp(targetValue) >= 0 {
			if currentValue.Cmp(targetValue) > 0 {
				res.Status = model.StatusExceeded
			} else {
				res.Status = model.StatusCompleted
			}
			markCompleted()
		} else {
			res.Status = model.StatusInProgress
		}

	case model.TargetMaximum:
		if currentValue.Cmp(targetValue) <= 0 {
			res.CompletionRate = 100
			res.Status = model.StatusCompleted
			markCompleted()
		} else {
			over := ratePercent(currentValue.Sub(targetValue), targetValue)
			rate := 100 - over
			if rate < 0 {
				rate = 0
			}
			res.CompletionRate = rate
			res.Status = model.StatusExceeded
		}
	}

	return res
}

// ratePercent is round(value/target * 100). Targets are expected to be
// positive; a non-positive target yields 0 instead of dividing by zero.
func ratePercent(value, target decimal.Decimal) int {
	if target.Sign() <= 0 {
		return 0
	}
	return int(value.Div(target).Mul(oneHundred).Round(0).IntPart())
}
