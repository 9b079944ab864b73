package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// CreateBuildingInput is the payload for registering a building
type CreateBuildingInput struct {
	Name                string `json:"name" binding:"required"`
	Address             string `json:"address" binding:"required"`
	Currency            string `json:"currency"`
	AutoGenerateCharges bool   `json:"auto_generate_charges"`
}

// CreateUnitInput is the payload for adding a unit to a building
type CreateUnitInput struct {
	Number      string  `json:"number" binding:"required"`
	Floor       *string `json:"floor"`
	SizeSqm     float64 `json:"size_sqm"`
	OwnerUserID *uint   `json:"owner_user_id"`
}

type BuildingService struct {
	repo     repository.BuildingRepository
	unitRepo repository.UnitRepository
	userRepo repository.UserRepository
	auditSvc *AuditService
}

func NewBuildingService(repo repository.BuildingRepository, unitRepo repository.UnitRepository, userRepo repository.UserRepository, auditSvc *AuditService) *BuildingService {
	return &BuildingService{
		repo:     repo,
		unitRepo: unitRepo,
		userRepo: userRepo,
		auditSvc: auditSvc,
	}
}

func (s *BuildingService) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	building, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return building, err
}

func (s *BuildingService) List(ctx context.Context, query *repository.ListQuery) ([]models.Building, int64, error) {
	return s.repo.List(ctx, query)
}

func (s *BuildingService) Create(ctx context.Context, input *CreateBuildingInput, actorID *uint, ip string) (*models.Building, error) {
	building := &models.Building{
		Name:                input.Name,
		Address:             input.Address,
		AutoGenerateCharges: input.AutoGenerateCharges,
		IsActive:            true,
	}
	if input.Currency != "" {
		building.Currency = input.Currency
	}

	if err := s.repo.Create(ctx, building); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "building", building.ID, building.ToResponse(), ip)
	return building, nil
}

func (s *BuildingService) Update(ctx context.Context, id uint, input *CreateBuildingInput, actorID *uint, ip string) (*models.Building, error) {
	building, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	building.Name = input.Name
	building.Address = input.Address
	building.AutoGenerateCharges = input.AutoGenerateCharges
	if input.Currency != "" {
		building.Currency = input.Currency
	}

	if err := s.repo.Update(ctx, building); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "building", building.ID, input, ip)
	return building, nil
}

// Deactivate takes a building out of service without deleting its history
func (s *BuildingService) Deactivate(ctx context.Context, id uint, actorID *uint, ip string) error {
	building, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}

	building.IsActive = false
	if err := s.repo.Update(ctx, building); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "building", id, nil, ip)
	return nil
}

func (s *BuildingService) FindUnit(ctx context.Context, unitID uint) (*models.Unit, error) {
	unit, err := s.unitRepo.FindByIDWithOwner(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return unit, err
}

func (s *BuildingService) ListUnits(ctx context.Context, buildingID uint, query *repository.ListQuery) ([]models.Unit, int64, error) {
	return s.unitRepo.List(ctx, buildingID, query)
}

// CreateUnit adds a unit to a building, optionally linked to its owner
func (s *BuildingService) CreateUnit(ctx context.Context, buildingID uint, input *CreateUnitInput, actorID *uint, ip string) (*models.Unit, error) {
	if _, err := s.FindByID(ctx, buildingID); err != nil {
		return nil, err
	}
	if input.SizeSqm < 0 {
		return nil, fmt.Errorf("%w: size must not be negative", ErrValidation)
	}
	if input.OwnerUserID != nil {
		if _, err := s.userRepo.FindByID(ctx, *input.OwnerUserID); err != nil {
			return nil, fmt.Errorf("%w: owner user not found", ErrValidation)
		}
	}

	unit := &models.Unit{
		BuildingID:  buildingID,
		Number:      input.Number,
		Floor:       input.Floor,
		SizeSqm:     input.SizeSqm,
		OwnerUserID: input.OwnerUserID,
		IsActive:    true,
	}
	if err := s.unitRepo.Create(ctx, unit); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionCreate, "unit", unit.ID, unit.ToResponse(), ip)
	return unit, nil
}

// UpdateUnit edits a unit, including transferring ownership
func (s *BuildingService) UpdateUnit(ctx context.Context, unitID uint, input *CreateUnitInput, actorID *uint, ip string) (*models.Unit, error) {
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if input.SizeSqm < 0 {
		return nil, fmt.Errorf("%w: size must not be negative", ErrValidation)
	}
	if input.OwnerUserID != nil {
		if _, err := s.userRepo.FindByID(ctx, *input.OwnerUserID); err != nil {
			return nil, fmt.Errorf("%w: owner user not found", ErrValidation)
		}
	}

	unit.Number = input.Number
	unit.Floor = input.Floor
	unit.SizeSqm = input.SizeSqm
	unit.OwnerUserID = input.OwnerUserID

	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "unit", unit.ID, input, ip)
	return unit, nil
}

// DeactivateUnit excludes a unit from future charge generation
func (s *BuildingService) DeactivateUnit(ctx context.Context, unitID uint, actorID *uint, ip string) error {
	unit, err := s.unitRepo.FindByID(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	unit.IsActive = false
	if err := s.unitRepo.Update(ctx, unit); err != nil {
		return err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionDelete, "unit", unitID, nil, ip)
	return nil
}
