package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitek/habitek-api/internal/models"
)

func outstandingCharge(id uint, due, paid float64) models.UnitCharge {
	return models.UnitCharge{
		ID:         id,
		AmountDue:  due,
		AmountPaid: paid,
		DueDate:    time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlanAllocationOldestFirst(t *testing.T) {
	charges := []models.UnitCharge{
		outstandingCharge(1, 100, 0),
		outstandingCharge(2, 100, 0),
		outstandingCharge(3, 100, 0),
	}

	plan := PlanAllocation(250, charges)

	assert.Len(t, plan.Slices, 3)
	assert.Equal(t, AllocationSlice{ChargeID: 1, Amount: 100}, plan.Slices[0])
	assert.Equal(t, AllocationSlice{ChargeID: 2, Amount: 100}, plan.Slices[1])
	assert.Equal(t, AllocationSlice{ChargeID: 3, Amount: 50}, plan.Slices[2])
	assert.Equal(t, 0.0, plan.Leftover)
}

func TestPlanAllocationLeftoverBecomesCredit(t *testing.T) {
	charges := []models.UnitCharge{
		outstandingCharge(1, 80, 0),
	}

	plan := PlanAllocation(200, charges)

	assert.Len(t, plan.Slices, 1)
	assert.Equal(t, 80.0, plan.Slices[0].Amount)
	assert.Equal(t, 120.0, plan.Leftover)
}

func TestPlanAllocationSkipsSettledAndCancelled(t *testing.T) {
	now := time.Now()
	paid := outstandingCharge(1, 100, 100)
	cancelled := outstandingCharge(2, 100, 0)
	cancelled.CancelledAt = &now
	open := outstandingCharge(3, 100, 25)

	plan := PlanAllocation(50, []models.UnitCharge{paid, cancelled, open})

	assert.Len(t, plan.Slices, 1)
	assert.Equal(t, uint(3), plan.Slices[0].ChargeID)
	assert.Equal(t, 50.0, plan.Slices[0].Amount)
	assert.Equal(t, 0.0, plan.Leftover)
}

func TestPlanAllocationCapsAtRemainingBalance(t *testing.T) {
	charges := []models.UnitCharge{
		outstandingCharge(1, 100, 60),
		outstandingCharge(2, 100, 0),
	}

	plan := PlanAllocation(70, charges)

	assert.Len(t, plan.Slices, 2)
	assert.Equal(t, 40.0, plan.Slices[0].Amount)
	assert.Equal(t, 30.0, plan.Slices[1].Amount)
}

func TestPlanAllocationNoCharges(t *testing.T) {
	plan := PlanAllocation(300, nil)

	assert.Empty(t, plan.Slices)
	assert.Equal(t, 300.0, plan.Leftover)
}

func TestPlanAllocationFractionalCents(t *testing.T) {
	charges := []models.UnitCharge{
		outstandingCharge(1, 33.33, 0),
		outstandingCharge(2, 33.33, 0),
	}

	plan := PlanAllocation(50.00, charges)

	assert.Len(t, plan.Slices, 2)
	assert.Equal(t, 33.33, plan.Slices[0].Amount)
	assert.Equal(t, 16.67, plan.Slices[1].Amount)
	assert.Equal(t, 0.0, plan.Leftover)
}

func TestPlanTargetedAllocation(t *testing.T) {
	charge := outstandingCharge(7, 120, 20)

	plan := PlanTargetedAllocation(150, &charge)

	assert.Len(t, plan.Slices, 1)
	assert.Equal(t, uint(7), plan.Slices[0].ChargeID)
	assert.Equal(t, 100.0, plan.Slices[0].Amount)
	assert.Equal(t, 50.0, plan.Leftover)
}

func TestPlanTargetedAllocationSettledCharge(t *testing.T) {
	charge := outstandingCharge(7, 120, 120)

	plan := PlanTargetedAllocation(60, &charge)

	assert.Empty(t, plan.Slices)
	assert.Equal(t, 60.0, plan.Leftover)
}
