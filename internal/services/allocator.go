package services

import (
	"github.com/habitek/habitek-api/internal/models"
)

// AllocationPlan is the outcome of spreading a payment amount across a
// unit's outstanding charges. Leftover is the part of the amount no charge
// could absorb; it stays on the payment as advance credit.
type AllocationPlan struct {
	Slices   []AllocationSlice
	Leftover float64
}

// AllocationSlice assigns part of the payment to one charge
type AllocationSlice struct {
	ChargeID uint
	Amount   float64
}

// PlanAllocation spreads amount across the given charges in order. Charges
// must already be sorted oldest period first; each slice is capped at the
// charge's remaining balance. Paid and cancelled charges are skipped.
func PlanAllocation(amount float64, charges []models.UnitCharge) AllocationPlan {
	plan := AllocationPlan{}
	remaining := models.Round2(amount)

	for _, charge := range charges {
		if remaining <= 0 {
			break
		}
		if !charge.IsOutstanding() {
			continue
		}

		balance := charge.Balance()
		if balance <= 0 {
			continue
		}

		slice := balance
		if remaining < balance {
			slice = remaining
		}

		plan.Slices = append(plan.Slices, AllocationSlice{
			ChargeID: charge.ID,
			Amount:   models.Round2(slice),
		})
		remaining = models.Round2(remaining - slice)
	}

	plan.Leftover = remaining
	return plan
}

// PlanTargetedAllocation applies the amount to a single charge. Whatever
// exceeds the charge's balance is leftover advance credit.
func PlanTargetedAllocation(amount float64, charge *models.UnitCharge) AllocationPlan {
	plan := AllocationPlan{Leftover: models.Round2(amount)}

	if charge == nil || !charge.IsOutstanding() {
		return plan
	}

	balance := charge.Balance()
	if balance <= 0 {
		return plan
	}

	slice := balance
	if plan.Leftover < balance {
		slice = plan.Leftover
	}

	plan.Slices = append(plan.Slices, AllocationSlice{
		ChargeID: charge.ID,
		Amount:   models.Round2(slice),
	})
	plan.Leftover = models.Round2(plan.Leftover - slice)
	return plan
}
