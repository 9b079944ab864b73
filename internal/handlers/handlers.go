package handlers

import (
	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health         *HealthHandler
	Auth           *AuthHandler
	User           *UserHandler
	Building       *BuildingHandler
	FeePlan        *FeePlanHandler
	Charge         *ChargeHandler
	Payment        *PaymentHandler
	Ledger         *LedgerHandler
	Expense        *ExpenseHandler
	ServiceRequest *ServiceRequestHandler
	WorkOrder      *WorkOrderHandler
	Report         *ReportHandler
	Notification   *NotificationHandler
	Audit          *AuditHandler
	Job            *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(),
		Auth:           NewAuthHandler(svcs.Auth),
		User:           NewUserHandler(svcs.User),
		Building:       NewBuildingHandler(svcs.Building),
		FeePlan:        NewFeePlanHandler(svcs.FeePlan),
		Charge:         NewChargeHandler(svcs.Charge),
		Payment:        NewPaymentHandler(svcs.Payment, cfg.ProviderWebhookSecret),
		Ledger:         NewLedgerHandler(svcs.Ledger),
		Expense:        NewExpenseHandler(svcs.Expense),
		ServiceRequest: NewServiceRequestHandler(svcs.ServiceRequest),
		WorkOrder:      NewWorkOrderHandler(svcs.WorkOrder),
		Report:         NewReportHandler(svcs.Report, svcs.Export),
		Notification:   NewNotificationHandler(svcs.Notification),
		Audit:          NewAuditHandler(svcs.Audit),
		Job:            NewJobHandler(svcs.Job),
	}
}
