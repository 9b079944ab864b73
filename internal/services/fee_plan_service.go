package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// FeePlanInput is the payload for creating or updating a fee plan
type FeePlanInput struct {
	Name               string    `json:"name" binding:"required"`
	CalculationMethod  string    `json:"calculation_method" binding:"required"`
	AmountPerSqm       *float64  `json:"amount_per_sqm"`
	FixedAmountPerUnit *float64  `json:"fixed_amount_per_unit"`
	EffectiveFrom      time.Time `json:"effective_from" binding:"required"`
}

type FeePlanService struct {
	repo         repository.FeePlanRepository
	buildingRepo repository.BuildingRepository
	auditSvc     *AuditService
}

func NewFeePlanService(repo repository.FeePlanRepository, buildingRepo repository.BuildingRepository, auditSvc *AuditService) *FeePlanService {
	return &FeePlanService{
		repo:         repo,
		buildingRepo: buildingRepo,
		auditSvc:     auditSvc,
	}
}

func (s *FeePlanService) FindByID(ctx context.Context, id uint) (*models.FeePlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return plan, err
}

func (s *FeePlanService) FindByBuilding(ctx context.Context, buildingID uint) ([]models.FeePlan, error) {
	return s.repo.FindByBuilding(ctx, buildingID)
}

// validate checks the amount field matching the calculation method is set
func (s *FeePlanService) validate(input *FeePlanInput) error {
	if !models.ValidCalculationMethod(input.CalculationMethod) {
		return fmt.Errorf("%w: unknown calculation method %q", ErrValidation, input.CalculationMethod)
	}

	switch input.CalculationMethod {
	case models.CalculationFixedPerUnit:
		if input.FixedAmountPerUnit == nil || *input.FixedAmountPerUnit <= 0 {
			return fmt.Errorf("%w: fixed_amount_per_unit must be positive", ErrValidation)
		}
	case models.CalculationBySqm:
		if input.AmountPerSqm == nil || *input.AmountPerSqm <= 0 {
			return fmt.Errorf("%w: amount_per_sqm must be positive", ErrValidation)
		}
	}
	return nil
}

func (s *FeePlanService) Create(ctx context.Context, buildingID uint, input *FeePlanInput, actorID *uint, ip string) (*models.FeePlan, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}
	if _, err := s.buildingRepo.FindByID(ctx, buildingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	plan := &models.FeePlan{
		BuildingID:         buildingID,
		Name:               input.Name,
		CalculationMethod:  input.CalculationMethod,
		AmountPerSqm:       input.AmountPerSqm,
		FixedAmountPerUnit: input.FixedAmountPerUnit,
		EffectiveFrom:      input.EffectiveFrom,
		IsActive:           true,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "fee_plan", plan.ID, plan.ToResponse(), ip)
	return plan, nil
}

// billingTermsChanged reports whether the input alters how the plan bills
func billingTermsChanged(plan *models.FeePlan, input *FeePlanInput) bool {
	if plan.CalculationMethod != input.CalculationMethod {
		return true
	}
	if !plan.EffectiveFrom.Equal(input.EffectiveFrom) {
		return true
	}
	if !amountEqual(plan.AmountPerSqm, input.AmountPerSqm) {
		return true
	}
	return !amountEqual(plan.FixedAmountPerUnit, input.FixedAmountPerUnit)
}

func amountEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Update edits a plan. Once charges reference the plan its billing terms
// are frozen; only the name can still change.
func (s *FeePlanService) Update(ctx context.Context, id uint, input *FeePlanInput, actorID *uint, ip string) (*models.FeePlan, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	plan, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	used, err := s.repo.HasCharges(ctx, id)
	if err != nil {
		return nil, err
	}
	if used && billingTermsChanged(plan, input) {
		return nil, fmt.Errorf("%w: plan has generated charges; only the name can change", ErrInvalidState)
	}

	plan.Name = input.Name
	plan.CalculationMethod = input.CalculationMethod
	plan.AmountPerSqm = input.AmountPerSqm
	plan.FixedAmountPerUnit = input.FixedAmountPerUnit
	plan.EffectiveFrom = input.EffectiveFrom

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "fee_plan", plan.ID, input, ip)
	return plan, nil
}

// Delete removes a plan that never billed anything; plans with generated
// charges are deactivated instead
func (s *FeePlanService) Delete(ctx context.Context, id uint, actorID *uint, ip string) error {
	plan, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	used, err := s.repo.HasCharges(ctx, id)
	if err != nil {
		return err
	}

	if used {
		plan.IsActive = false
		if err := s.repo.Update(ctx, plan); err != nil {
			return err
		}
	} else {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "fee_plan", id, map[string]bool{"deactivated": used}, ip)
	return nil
}
