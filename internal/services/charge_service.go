package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/pkg/logger"
)

// GenerateResult summarizes one charge generation run
type GenerateResult struct {
	Period       string  `json:"period"`
	CreatedCount int     `json:"created_count"`
	SkippedCount int     `json:"skipped_count"`
	TotalAmount  float64 `json:"total_amount"`
}

type ChargeService struct {
	repos           *repository.Repositories
	notificationSvc *NotificationService
	auditSvc        *AuditService
	dueDay          int
}

func NewChargeService(
	repos *repository.Repositories,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	dueDay int,
) *ChargeService {
	return &ChargeService{
		repos:           repos,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		dueDay:          dueDay,
	}
}

func (s *ChargeService) FindByID(ctx context.Context, id uint) (*models.UnitCharge, error) {
	charge, err := s.repos.Charge.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return charge, err
}

func (s *ChargeService) List(ctx context.Context, query *repository.ListQuery) ([]models.UnitCharge, int64, error) {
	return s.repos.Charge.List(ctx, query)
}

func (s *ChargeService) FindByUnit(ctx context.Context, unitID uint) ([]models.UnitCharge, error) {
	return s.repos.Charge.FindByUnit(ctx, unitID)
}

// ParsePeriod validates a "YYYY-MM" billing period and returns the first
// day of that month in UTC
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: period must be YYYY-MM", ErrValidation)
	}
	return t, nil
}

// GenerateCharges creates one charge per active unit of the plan's building
// for the given period. Units that already have a charge for the period are
// skipped, so re-running the same generation is harmless. Units under a
// manual_per_unit plan are skipped entirely; staff bill those by hand.
func (s *ChargeService) GenerateCharges(ctx context.Context, feePlanID uint, period string, actorID *uint) (*GenerateResult, error) {
	monthStart, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	plan, err := s.repos.FeePlan.FindByID(ctx, feePlanID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, fmt.Errorf("%w: fee plan is inactive", ErrValidation)
	}
	if monthStart.Before(time.Date(plan.EffectiveFrom.Year(), plan.EffectiveFrom.Month(), 1, 0, 0, 0, 0, time.UTC)) {
		return nil, fmt.Errorf("%w: period is before the plan's effective date", ErrValidation)
	}

	units, err := s.repos.Unit.FindActiveByBuilding(ctx, plan.BuildingID)
	if err != nil {
		return nil, err
	}

	dueDate := time.Date(monthStart.Year(), monthStart.Month(), s.dueDay, 0, 0, 0, 0, time.UTC)
	result := &GenerateResult{Period: period}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		for i := range units {
			unit := &units[i]

			amount, ok := chargeAmountFor(plan, unit)
			if !ok {
				result.SkippedCount++
				continue
			}

			exists, err := tx.Charge.ExistsForUnitAndPeriod(ctx, unit.ID, period)
			if err != nil {
				return err
			}
			if exists {
				result.SkippedCount++
				continue
			}

			charge := &models.UnitCharge{
				UnitID:     unit.ID,
				BuildingID: plan.BuildingID,
				FeePlanID:  &plan.ID,
				Period:     period,
				AmountDue:  amount,
				DueDate:    dueDate,
				Status:     models.ChargeStatusPending,
			}
			if err := tx.Charge.Create(ctx, charge); err != nil {
				return err
			}

			entry := &models.LedgerEntry{
				BuildingID:   plan.BuildingID,
				UnitID:       &unit.ID,
				EntryType:    models.EntryTypeCharge,
				Category:     models.LedgerCategoryDues,
				Description:  fmt.Sprintf("Dues %s unit %s", period, unit.Number),
				Debit:        amount,
				UnitChargeID: &charge.ID,
				EntryDate:    time.Now().UTC(),
			}
			if err := tx.Ledger.Append(ctx, entry); err != nil {
				return err
			}

			if err := s.applyAdvanceCredit(ctx, tx, charge); err != nil {
				return err
			}

			result.CreatedCount++
			result.TotalAmount = models.Round2(result.TotalAmount + amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Generated %d charges for plan %d period %s (%d skipped)",
		result.CreatedCount, feePlanID, period, result.SkippedCount))

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "unit_charge_batch", feePlanID, result, "")
	}

	return result, nil
}

// chargeAmountFor computes the period amount for one unit. The second return
// is false when the plan cannot bill the unit automatically.
func chargeAmountFor(plan *models.FeePlan, unit *models.Unit) (float64, bool) {
	switch plan.CalculationMethod {
	case models.CalculationFixedPerUnit:
		if plan.FixedAmountPerUnit == nil {
			return 0, false
		}
		return models.Round2(*plan.FixedAmountPerUnit), true
	case models.CalculationBySqm:
		if plan.AmountPerSqm == nil || unit.SizeSqm <= 0 {
			return 0, false
		}
		return models.Round2(*plan.AmountPerSqm * unit.SizeSqm), true
	default:
		// manual_per_unit: staff create charges one by one
		return 0, false
	}
}

// applyAdvanceCredit consumes unallocated amounts from the unit's settled
// payments against a freshly created charge, oldest payment first. The
// ledger already carries the full payment credit, so only allocations and
// the charge's paid amount change here.
func (s *ChargeService) applyAdvanceCredit(ctx context.Context, tx *repository.Repositories, charge *models.UnitCharge) error {
	payments, err := tx.Payment.FindSucceededWithCreditByUnit(ctx, charge.UnitID)
	if err != nil {
		return err
	}

	for i := range payments {
		payment := &payments[i]
		balance := charge.Balance()
		if balance <= 0 {
			break
		}

		credit := payment.UnallocatedAmount()
		if credit <= 0 {
			continue
		}

		slice := credit
		if balance < credit {
			slice = balance
		}

		allocation := &models.PaymentAllocation{
			PaymentID:       payment.ID,
			UnitChargeID:    charge.ID,
			AllocatedAmount: models.Round2(slice),
		}
		if err := tx.Allocation.Create(ctx, allocation); err != nil {
			return err
		}

		charge.AmountPaid = models.Round2(charge.AmountPaid + slice)
		charge.RefreshStatus(time.Now().UTC())
		if err := tx.Charge.Update(ctx, charge); err != nil {
			return err
		}
	}
	return nil
}

// CreateManualCharge bills a single unit for a period, for manual_per_unit
// plans or ad-hoc assessments
func (s *ChargeService) CreateManualCharge(ctx context.Context, unitID uint, period string, amount float64, note *string, actorID *uint) (*models.UnitCharge, error) {
	monthStart, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	unit, err := s.repos.Unit.FindByID(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	dueDate := time.Date(monthStart.Year(), monthStart.Month(), s.dueDay, 0, 0, 0, 0, time.UTC)

	var charge *models.UnitCharge
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		exists, err := tx.Charge.ExistsForUnitAndPeriod(ctx, unit.ID, period)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: unit already has a charge for %s", ErrConflict, period)
		}

		charge = &models.UnitCharge{
			UnitID:     unit.ID,
			BuildingID: unit.BuildingID,
			Period:     period,
			AmountDue:  models.Round2(amount),
			DueDate:    dueDate,
			Status:     models.ChargeStatusPending,
			Note:       note,
		}
		if err := tx.Charge.Create(ctx, charge); err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			BuildingID:   unit.BuildingID,
			UnitID:       &unit.ID,
			EntryType:    models.EntryTypeCharge,
			Category:     models.LedgerCategoryDues,
			Description:  fmt.Sprintf("Manual charge %s unit %s", period, unit.Number),
			Debit:        charge.AmountDue,
			UnitChargeID: &charge.ID,
			EntryDate:    time.Now().UTC(),
		}
		if err := tx.Ledger.Append(ctx, entry); err != nil {
			return err
		}

		return s.applyAdvanceCredit(ctx, tx, charge)
	})
	if err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "unit_charge", charge.ID, charge.ToResponse(), "")
	}

	return charge, nil
}

// CancelCharge voids an unpaid charge and reverses its ledger debit.
// Charges with money already applied cannot be cancelled.
func (s *ChargeService) CancelCharge(ctx context.Context, id uint, actorID *uint) (*models.UnitCharge, error) {
	var charge *models.UnitCharge

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		var err error
		charge, err = tx.Charge.FindByIDForUpdate(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if charge.Status == models.ChargeStatusCancelled {
			return fmt.Errorf("%w: charge is already cancelled", ErrInvalidState)
		}
		if charge.AmountPaid > 0 {
			return fmt.Errorf("%w: charge has payments applied", ErrInvalidState)
		}

		now := time.Now().UTC()
		charge.CancelledAt = &now
		charge.Status = models.ChargeStatusCancelled
		if err := tx.Charge.Update(ctx, charge); err != nil {
			return err
		}

		entry := &models.LedgerEntry{
			BuildingID:   charge.BuildingID,
			UnitID:       &charge.UnitID,
			EntryType:    models.EntryTypeCharge,
			Category:     models.LedgerCategoryReversal,
			Description:  fmt.Sprintf("Cancelled charge %s", charge.Period),
			Credit:       charge.AmountDue,
			UnitChargeID: &charge.ID,
			EntryDate:    now,
		}
		return tx.Ledger.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		s.auditSvc.Log(ctx, actorID, models.AuditActionCancel, "unit_charge", charge.ID, nil, "")
	}

	return charge, nil
}

// RefreshOverdueStatuses sweeps unpaid charges whose due date has passed and
// stamps them overdue. Returns the number of charges updated. Run from the
// scheduler, but safe to call any time.
func (s *ChargeService) RefreshOverdueStatuses(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	candidates, err := s.repos.Charge.FindOverdueCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range candidates {
		charge := &candidates[i]
		before := charge.Status
		charge.RefreshStatus(now)
		if charge.Status == before {
			continue
		}
		if err := s.repos.Charge.Update(ctx, charge); err != nil {
			logger.Error(fmt.Sprintf("failed to mark charge %d overdue: %v", charge.ID, err))
			continue
		}
		updated++
	}

	if updated > 0 {
		logger.Info(fmt.Sprintf("Marked %d charges overdue", updated))
	}
	return updated, nil
}

// GenerateScheduledCharges runs generation for the current month across every
// building enrolled in automatic billing. Each active plan of each building is
// generated independently; a failure in one building does not stop the rest.
func (s *ChargeService) GenerateScheduledCharges(ctx context.Context) error {
	period := time.Now().UTC().Format("2006-01")

	buildings, err := s.repos.Building.FindActiveWithAutoCharges(ctx)
	if err != nil {
		return err
	}

	for i := range buildings {
		plans, err := s.repos.FeePlan.FindActiveByBuilding(ctx, buildings[i].ID)
		if err != nil {
			logger.Error("failed to load fee plans for scheduled billing", "building_id", buildings[i].ID, "error", err)
			continue
		}
		for j := range plans {
			result, err := s.GenerateCharges(ctx, plans[j].ID, period, nil)
			if err != nil {
				logger.Error("scheduled charge generation failed", "fee_plan_id", plans[j].ID, "period", period, "error", err)
				continue
			}
			logger.Info("scheduled charge generation finished",
				"building_id", buildings[i].ID,
				"fee_plan_id", plans[j].ID,
				"period", period,
				"created", result.CreatedCount,
				"skipped", result.SkippedCount,
			)
		}
	}
	return nil
}
