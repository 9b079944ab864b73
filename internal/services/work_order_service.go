package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/internal/statemachine"
)

// WorkOrderInput is the payload for dispatching a vendor
type WorkOrderInput struct {
	BuildingID       uint       `json:"building_id"`
	ServiceRequestID *uint      `json:"service_request_id"`
	VendorName       string     `json:"vendor_name" binding:"required"`
	Title            string     `json:"title" binding:"required"`
	Description      *string    `json:"description"`
	ScheduledFor     *time.Time `json:"scheduled_for"`
}

type WorkOrderService struct {
	repo            repository.WorkOrderRepository
	requestRepo     repository.ServiceRequestRepository
	expenseSvc      *ExpenseService
	notificationSvc *NotificationService
	auditSvc        *AuditService
}

func NewWorkOrderService(
	repo repository.WorkOrderRepository,
	requestRepo repository.ServiceRequestRepository,
	expenseSvc *ExpenseService,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
) *WorkOrderService {
	return &WorkOrderService{
		repo:            repo,
		requestRepo:     requestRepo,
		expenseSvc:      expenseSvc,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
	}
}

func (s *WorkOrderService) FindByID(ctx context.Context, id uint) (*models.WorkOrder, error) {
	order, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return order, err
}

func (s *WorkOrderService) List(ctx context.Context, query *repository.ListQuery) ([]models.WorkOrder, int64, error) {
	return s.repo.List(ctx, query)
}

// Create opens a work order, either standalone or attached to a service
// request. Attaching moves an open request to in_progress.
func (s *WorkOrderService) Create(ctx context.Context, input *WorkOrderInput, actorID uint, ip string) (*models.WorkOrder, error) {
	buildingID := input.BuildingID

	var request *models.ServiceRequest
	if input.ServiceRequestID != nil {
		var err error
		request, err = s.requestRepo.FindByID(ctx, *input.ServiceRequestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		buildingID = request.BuildingID
	}

	if buildingID == 0 {
		return nil, fmt.Errorf("%w: building_id or service_request_id is required", ErrValidation)
	}

	order := &models.WorkOrder{
		BuildingID:       buildingID,
		ServiceRequestID: input.ServiceRequestID,
		VendorName:       input.VendorName,
		AssignedByUserID: &actorID,
		Title:            input.Title,
		Description:      input.Description,
		Status:           models.WorkOrderStatusOpen,
		ScheduledFor:     input.ScheduledFor,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}

	if request != nil && request.Status == models.RequestStatusOpen {
		request.Status = models.RequestStatusInProgress
		if err := s.requestRepo.Update(ctx, request); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(ctx, &actorID, models.AuditActionCreate, "work_order", order.ID, order.ToResponse(), ip)
	return order, nil
}

// Transition drives the work order lifecycle: assign, start, complete, close
func (s *WorkOrderService) Transition(ctx context.Context, id uint, event string, actorID uint, ip string) (*models.WorkOrder, error) {
	order, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewWorkOrderFSM(order)

	switch event {
	case "assign":
		err = fsm.Assign(ctx)
	case "start":
		err = fsm.Start(ctx)
	case "complete":
		err = fsm.Complete(ctx)
		if err == nil {
			now := time.Now().UTC()
			order.CompletedAt = &now
		}
	case "close":
		err = fsm.Close(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrValidation, event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	if order.ServiceRequestID != nil {
		s.notifyRequester(ctx, *order.ServiceRequestID, order)
	}

	s.auditSvc.Log(ctx, &actorID, models.AuditActionUpdate, "work_order", order.ID, map[string]string{"event": event, "status": order.Status}, ip)
	return order, nil
}

// CloseWithCost completes the paperwork: records the vendor invoice as an
// expense against the building and closes the order
func (s *WorkOrderService) CloseWithCost(ctx context.Context, id uint, cost float64, actorID uint, ip string) (*models.WorkOrder, error) {
	if cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrValidation)
	}

	order, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fsm := statemachine.NewWorkOrderFSM(order)
	if err := fsm.Close(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	order.Cost = &cost

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	if cost > 0 {
		_, err = s.expenseSvc.Create(ctx, order.BuildingID, &ExpenseInput{
			VendorName:  order.VendorName,
			Category:    models.ExpenseCategoryMaintenance,
			Amount:      cost,
			Description: &order.Title,
			WorkOrderID: &order.ID,
		}, actorID, ip)
		if err != nil {
			return nil, err
		}
	}

	s.auditSvc.Log(ctx, &actorID, models.AuditActionUpdate, "work_order", order.ID, map[string]any{"event": "close", "cost": cost}, ip)
	return order, nil
}

func (s *WorkOrderService) notifyRequester(ctx context.Context, requestID uint, order *models.WorkOrder) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return
	}
	s.notificationSvc.NotifyUser(ctx, request.RequestedByUserID, "Work order updated",
		fmt.Sprintf("Work on %q is now %s.", order.Title, order.Status),
		models.NotificationTypeWorkOrderUpdated)
}
