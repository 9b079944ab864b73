package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

func floatPtr(v float64) *float64 { return &v }

type chargeServiceFixture struct {
	service     *ChargeService
	chargeRepo  *mockChargeRepo
	paymentRepo *mockPaymentRepo
	ledgerRepo  *mockLedgerRepo
}

func newChargeServiceFixture(plan models.FeePlan, units ...models.Unit) *chargeServiceFixture {
	allocationRepo := newMockAllocationRepo()
	chargeRepo := newMockChargeRepo()
	paymentRepo := newMockPaymentRepo(allocationRepo)
	ledgerRepo := &mockLedgerRepo{}

	repos := &repository.Repositories{
		Unit:       newMockUnitRepo(units...),
		FeePlan:    newMockFeePlanRepo(plan),
		Charge:     chargeRepo,
		Payment:    paymentRepo,
		Allocation: allocationRepo,
		Ledger:     ledgerRepo,
	}

	notificationSvc := NewNotificationService(&mockNotificationRepo{}, newMockUserRepo())
	auditSvc := NewAuditService(&mockAuditLogRepo{})

	return &chargeServiceFixture{
		service:     NewChargeService(repos, notificationSvc, auditSvc, 10),
		chargeRepo:  chargeRepo,
		paymentRepo: paymentRepo,
		ledgerRepo:  ledgerRepo,
	}
}

func fixedPlan(buildingID uint, amount float64) models.FeePlan {
	return models.FeePlan{
		ID:                 1,
		BuildingID:         buildingID,
		Name:               "Standard dues",
		CalculationMethod:  models.CalculationFixedPerUnit,
		FixedAmountPerUnit: floatPtr(amount),
		EffectiveFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:           true,
	}
}

func TestGenerateChargesFixedPlan(t *testing.T) {
	units := []models.Unit{
		{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
		{ID: 2, BuildingID: 5, Number: "102", IsActive: true},
		{ID: 3, BuildingID: 5, Number: "103", IsActive: false},
	}
	f := newChargeServiceFixture(fixedPlan(5, 120), units...)

	result, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 0, result.SkippedCount)
	assert.Equal(t, 240.0, result.TotalAmount)

	// One charge and one ledger debit per active unit
	assert.Len(t, f.chargeRepo.charges, 2)
	assert.Len(t, f.ledgerRepo.entries, 2)
	for _, entry := range f.ledgerRepo.entries {
		assert.Equal(t, models.EntryTypeCharge, entry.EntryType)
		assert.Equal(t, models.LedgerCategoryDues, entry.Category)
		assert.Equal(t, 120.0, entry.Debit)
	}

	for _, charge := range f.chargeRepo.charges {
		assert.Equal(t, "2026-03", charge.Period)
		assert.Equal(t, models.ChargeStatusPending, charge.Status)
		assert.Equal(t, 10, charge.DueDate.Day())
	}
}

func TestGenerateChargesIsIdempotent(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100),
		models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
	)

	first, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreatedCount)

	second, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.CreatedCount)
	assert.Equal(t, 1, second.SkippedCount)
	assert.Len(t, f.chargeRepo.charges, 1)
}

func TestGenerateChargesBySqm(t *testing.T) {
	plan := models.FeePlan{
		ID:                1,
		BuildingID:        5,
		Name:              "Per square meter",
		CalculationMethod: models.CalculationBySqm,
		AmountPerSqm:      floatPtr(2.5),
		EffectiveFrom:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:          true,
	}
	f := newChargeServiceFixture(plan,
		models.Unit{ID: 1, BuildingID: 5, Number: "101", SizeSqm: 80, IsActive: true},
		models.Unit{ID: 2, BuildingID: 5, Number: "102", SizeSqm: 0, IsActive: true}, // no size on file
	)

	result, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Equal(t, 200.0, result.TotalAmount)
}

func TestGenerateChargesManualPlanSkipsEverything(t *testing.T) {
	plan := fixedPlan(5, 0)
	plan.CalculationMethod = models.CalculationManualPerUnit
	plan.FixedAmountPerUnit = nil
	f := newChargeServiceFixture(plan,
		models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
	)

	result, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Empty(t, f.chargeRepo.charges)
}

func TestGenerateChargesPeriodBeforeEffectiveDate(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))

	_, err := f.service.GenerateCharges(context.Background(), 1, "2024-12", nil)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateChargesInvalidPeriod(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))

	_, err := f.service.GenerateCharges(context.Background(), 1, "March 2026", nil)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateChargesInactivePlan(t *testing.T) {
	plan := fixedPlan(5, 100)
	plan.IsActive = false
	f := newChargeServiceFixture(plan)

	_, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestGenerateChargesConsumesAdvanceCredit(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100),
		models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
	)

	// The unit holds 60 of advance credit from an earlier overpayment
	f.paymentRepo.add(models.Payment{
		UnitID:      1,
		UserID:      9,
		Amount:      60,
		Method:      models.PaymentMethodCash,
		Status:      models.PaymentStatusSucceeded,
		PaymentDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})

	result, err := f.service.GenerateCharges(context.Background(), 1, "2026-03", nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.CreatedCount)

	var charge *models.UnitCharge
	for _, c := range f.chargeRepo.charges {
		charge = c
	}
	require.NotNil(t, charge)
	assert.Equal(t, 60.0, charge.AmountPaid)
	assert.Equal(t, models.ChargeStatusPartiallyPaid, charge.Status)

	// Only the dues debit reaches the ledger; the credit was posted when the
	// payment settled
	assert.Len(t, f.ledgerRepo.entries, 1)
}

func TestCreateManualCharge(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100),
		models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
	)

	charge, err := f.service.CreateManualCharge(context.Background(), 1, "2026-04", 75.50, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 75.50, charge.AmountDue)
	assert.Equal(t, models.ChargeStatusPending, charge.Status)
	assert.Nil(t, charge.FeePlanID)

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 75.50, entry.Debit)
}

func TestCreateManualChargeDuplicatePeriod(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100),
		models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true},
	)
	f.chargeRepo.add(models.UnitCharge{UnitID: 1, BuildingID: 5, Period: "2026-04", AmountDue: 100})

	_, err := f.service.CreateManualCharge(context.Background(), 1, "2026-04", 50, nil, nil)

	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateManualChargeUnknownUnit(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))

	_, err := f.service.CreateManualCharge(context.Background(), 42, "2026-04", 50, nil, nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelCharge(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))
	created := f.chargeRepo.add(models.UnitCharge{
		UnitID:     1,
		BuildingID: 5,
		Period:     "2026-03",
		AmountDue:  100,
		DueDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:     models.ChargeStatusPending,
	})

	charge, err := f.service.CancelCharge(context.Background(), created.ID, nil)

	require.NoError(t, err)
	assert.Equal(t, models.ChargeStatusCancelled, charge.Status)
	require.NotNil(t, charge.CancelledAt)

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, models.LedgerCategoryReversal, entry.Category)
	assert.Equal(t, 100.0, entry.Credit)
}

func TestCancelChargeWithPaymentsApplied(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))
	created := f.chargeRepo.add(models.UnitCharge{
		UnitID:     1,
		BuildingID: 5,
		Period:     "2026-03",
		AmountDue:  100,
		AmountPaid: 30,
		Status:     models.ChargeStatusPartiallyPaid,
	})

	_, err := f.service.CancelCharge(context.Background(), created.ID, nil)

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRefreshOverdueStatuses(t *testing.T) {
	f := newChargeServiceFixture(fixedPlan(5, 100))
	pastDue := f.chargeRepo.add(models.UnitCharge{
		UnitID:     1,
		BuildingID: 5,
		Period:     "2026-01",
		AmountDue:  100,
		DueDate:    time.Now().UTC().AddDate(0, 0, -5),
		Status:     models.ChargeStatusPending,
	})

	updated, err := f.service.RefreshOverdueStatuses(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, models.ChargeStatusOverdue, f.chargeRepo.charges[pastDue.ID].Status)
}
