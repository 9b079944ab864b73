package services

import (
	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/gateway"
	"github.com/habitek/habitek-api/internal/jobs"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Auth           *AuthService
	User           *UserService
	Building       *BuildingService
	FeePlan        *FeePlanService
	Charge         *ChargeService
	Payment        *PaymentService
	Ledger         *LedgerService
	Expense        *ExpenseService
	ServiceRequest *ServiceRequestService
	WorkOrder      *WorkOrderService
	Report         *ReportService
	Export         *ExportService
	Notification   *NotificationService
	Audit          *AuditService
	Email          *EmailService
	Job            *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, store *storage.LocalStorage, processor gateway.PaymentProcessor, cfg *config.Config) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	emailSvc := NewEmailService(cfg)
	auditSvc := NewAuditService(repos.AuditLog)

	reportSvc := NewReportService(repos.Charge, repos.Building, repos.Ledger)
	expenseSvc := NewExpenseService(repos, auditSvc)

	return &Services{
		Auth:           NewAuthService(repos.User, repos.RefreshToken, emailSvc, cfg),
		User:           NewUserService(repos.User, repos.Unit, emailSvc, auditSvc),
		Building:       NewBuildingService(repos.Building, repos.Unit, repos.User, auditSvc),
		FeePlan:        NewFeePlanService(repos.FeePlan, repos.Building, auditSvc),
		Charge:         NewChargeService(repos, notificationSvc, auditSvc, cfg.ChargeDueDay),
		Payment:        NewPaymentService(repos, processor, notificationSvc, emailSvc, auditSvc, store),
		Ledger:         NewLedgerService(repos.Ledger),
		Expense:        expenseSvc,
		ServiceRequest: NewServiceRequestService(repos.ServiceRequest, repos.Unit, notificationSvc, auditSvc),
		WorkOrder:      NewWorkOrderService(repos.WorkOrder, repos.ServiceRequest, expenseSvc, notificationSvc, auditSvc),
		Report:         reportSvc,
		Export:         NewExportService(reportSvc),
		Notification:   notificationSvc,
		Audit:          auditSvc,
		Email:          emailSvc,
		Job:            NewJobService(worker),
	}
}
