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

// ServiceRequestInput is the payload for reporting an issue
type ServiceRequestInput struct {
	UnitID      uint    `json:"unit_id" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
}

type ServiceRequestService struct {
	repo            repository.ServiceRequestRepository
	unitRepo        repository.UnitRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

func NewServiceRequestService(
	repo repository.ServiceRequestRepository,
	unitRepo repository.UnitRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *ServiceRequestService {
	return &ServiceRequestService{
		repo:            repo,
		unitRepo:        unitRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

func (s *ServiceRequestService) FindByID(ctx context.Context, id uint) (*models.ServiceRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return request, err
}

func (s *ServiceRequestService) List(ctx context.Context, query *repository.ListQuery) ([]models.ServiceRequest, int64, error) {
	return s.repo.List(ctx, query)
}

// Create files a new request against the unit's building and alerts staff
func (s *ServiceRequestService) Create(ctx context.Context, input *ServiceRequestInput, requestedBy uint, ip string) (*models.ServiceRequest, error) {
	unit, err := s.unitRepo.FindByID(ctx, input.UnitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	switch priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
	default:
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	request := &models.ServiceRequest{
		BuildingID:        unit.BuildingID,
		UnitID:            unit.ID,
		RequestedByUserID: requestedBy,
		Title:             input.Title,
		Description:       input.Description,
		Priority:          priority,
		Status:            models.RequestStatusOpen,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &requestedBy, models.AuditActionCreate, "service_request", request.ID, request.ToResponse(), ip)
	s.notificationSvc.NotifyAdmins(ctx, "New service request",
		fmt.Sprintf("Unit %s reported: %s", unit.Number, input.Title),
		models.NotificationTypeRequestUpdated)

	return request, nil
}

// UpdateStatus moves a request through open → in_progress → resolved →
// closed and tells the reporter
func (s *ServiceRequestService) UpdateStatus(ctx context.Context, id uint, status string, actorID *uint, ip string) (*models.ServiceRequest, error) {
	request, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !validRequestTransition(request.Status, status) {
		return nil, fmt.Errorf("%w: cannot move request from %s to %s", ErrInvalidState, request.Status, status)
	}

	request.Status = status
	if status == models.RequestStatusResolved {
		now := time.Now().UTC()
		request.ResolvedAt = &now
	}

	if err := s.repo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actorID, models.AuditActionUpdate, "service_request", request.ID, map[string]string{"status": status}, ip)
	s.notificationSvc.NotifyUser(ctx, request.RequestedByUserID, "Service request updated",
		fmt.Sprintf("Your request %q is now %s.", request.Title, status),
		models.NotificationTypeRequestUpdated)

	return request, nil
}

func validRequestTransition(from, to string) bool {
	switch from {
	case models.RequestStatusOpen:
		return to == models.RequestStatusInProgress || to == models.RequestStatusResolved || to == models.RequestStatusClosed
	case models.RequestStatusInProgress:
		return to == models.RequestStatusResolved || to == models.RequestStatusClosed
	case models.RequestStatusResolved:
		return to == models.RequestStatusClosed
	}
	return false
}
