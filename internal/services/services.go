package services

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time in the application's calendar location.
type Clock func() time.Time

// ClockIn returns a Clock reporting wall time in loc (UTC when nil).
func ClockIn(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time { return time.Now().In(loc) }
}

// MilestoneChecker is satisfied by *notify.MilestoneEvaluator.
type MilestoneChecker interface {
	CheckQuietly(ctx context.Context, userID uuid.UUID, now time.Time)
}

type noMilestones struct{}

func (noMilestones) CheckQuietly(context.Context, uuid.UUID, time.Time) {}

func milestonesOrNop(m MilestoneChecker) MilestoneChecker {
	if m == nil {
		return noMilestones{}
	}
	return m
}
