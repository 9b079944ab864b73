package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/models"
)

func newFeePlanServiceFixture(plans ...models.FeePlan) (*FeePlanService, *mockFeePlanRepo) {
	planRepo := newMockFeePlanRepo(plans...)
	buildingRepo := newMockBuildingRepo(models.Building{ID: 5, Name: "Torre Norte", IsActive: true})
	return NewFeePlanService(planRepo, buildingRepo, NewAuditService(&mockAuditLogRepo{})), planRepo
}

func planInput(amount float64) *FeePlanInput {
	return &FeePlanInput{
		Name:               "Standard dues",
		CalculationMethod:  models.CalculationFixedPerUnit,
		FixedAmountPerUnit: floatPtr(amount),
		EffectiveFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestUpdateFeePlanUnreferenced(t *testing.T) {
	service, _ := newFeePlanServiceFixture(fixedPlan(5, 120))

	input := planInput(150)
	input.Name = "Raised dues"

	plan, err := service.Update(context.Background(), 1, input, nil, "")

	require.NoError(t, err)
	assert.Equal(t, "Raised dues", plan.Name)
	assert.Equal(t, 150.0, *plan.FixedAmountPerUnit)
}

func TestUpdateFeePlanWithChargesFreezesBillingTerms(t *testing.T) {
	service, planRepo := newFeePlanServiceFixture(fixedPlan(5, 120))
	planRepo.charged[1] = true

	_, err := service.Update(context.Background(), 1, planInput(150), nil, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	input := planInput(120)
	input.CalculationMethod = models.CalculationBySqm
	input.AmountPerSqm = floatPtr(2.5)
	input.FixedAmountPerUnit = nil
	_, err = service.Update(context.Background(), 1, input, nil, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	input = planInput(120)
	input.EffectiveFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = service.Update(context.Background(), 1, input, nil, "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUpdateFeePlanWithChargesAllowsRename(t *testing.T) {
	service, planRepo := newFeePlanServiceFixture(fixedPlan(5, 120))
	planRepo.charged[1] = true

	input := planInput(120)
	input.Name = "Dues (renamed)"

	plan, err := service.Update(context.Background(), 1, input, nil, "")

	require.NoError(t, err)
	assert.Equal(t, "Dues (renamed)", plan.Name)
	assert.Equal(t, 120.0, *plan.FixedAmountPerUnit)
}

func TestDeleteFeePlanWithChargesDeactivates(t *testing.T) {
	service, planRepo := newFeePlanServiceFixture(fixedPlan(5, 120))
	planRepo.charged[1] = true

	require.NoError(t, service.Delete(context.Background(), 1, nil, ""))

	plan, err := planRepo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, plan.IsActive)
}

func TestDeleteFeePlanUnreferencedRemoves(t *testing.T) {
	service, planRepo := newFeePlanServiceFixture(fixedPlan(5, 120))

	require.NoError(t, service.Delete(context.Background(), 1, nil, ""))

	_, err := planRepo.FindByID(context.Background(), 1)
	assert.Error(t, err)
}
