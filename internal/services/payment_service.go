package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/gateway"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/internal/statemachine"
	"github.com/habitek/habitek-api/internal/storage"
	"github.com/habitek/habitek-api/pkg/logger"
)

// ManualPaymentInput is what staff enter when recording an offline payment
type ManualPaymentInput struct {
	UnitID         uint       `json:"unit_id" binding:"required"`
	Amount         float64    `json:"amount" binding:"required"`
	Method         string     `json:"method" binding:"required"`
	PaymentDate    *time.Time `json:"payment_date"`
	Description    *string    `json:"description"`
	TargetChargeID *uint      `json:"target_charge_id"`
}

// WebhookEvent is the settlement notification pushed by the card processor
type WebhookEvent struct {
	Reference  string `json:"reference"`
	Status     string `json:"status"`
	RawPayload []byte `json:"-"`
}

type PaymentService struct {
	repos           *repository.Repositories
	processor       gateway.PaymentProcessor
	notificationSvc *NotificationService
	emailSvc        *EmailService
	auditSvc        *AuditService
	storage         *storage.LocalStorage
}

func NewPaymentService(
	repos *repository.Repositories,
	processor gateway.PaymentProcessor,
	notificationSvc *NotificationService,
	emailSvc *EmailService,
	auditSvc *AuditService,
	storage *storage.LocalStorage,
) *PaymentService {
	return &PaymentService{
		repos:           repos,
		processor:       processor,
		notificationSvc: notificationSvc,
		emailSvc:        emailSvc,
		auditSvc:        auditSvc,
		storage:         storage,
	}
}

func (s *PaymentService) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repos.Payment.FindByIDWithAllocations(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return payment, err
}

func (s *PaymentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.repos.Payment.List(ctx, query)
}

func (s *PaymentService) FindByUnit(ctx context.Context, unitID uint) ([]models.Payment, error) {
	return s.repos.Payment.FindByUnit(ctx, unitID)
}

// RecordManualPayment enters a bank transfer, cash or check payment and
// immediately applies it to the unit's outstanding charges, oldest period
// first. With a target charge the money goes only to that charge; any
// surplus stays on the payment as advance credit.
func (s *PaymentService) RecordManualPayment(ctx context.Context, input *ManualPaymentInput, recordedBy uint, ip string) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !models.ValidManualMethod(input.Method) {
		return nil, fmt.Errorf("%w: method must be bank_transfer, cash or check", ErrValidation)
	}

	unit, err := s.repos.Unit.FindByIDWithOwner(ctx, input.UnitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if unit.OwnerUserID == nil {
		return nil, fmt.Errorf("%w: unit has no owner on file", ErrValidation)
	}

	paymentDate := time.Now().UTC()
	if input.PaymentDate != nil {
		paymentDate = input.PaymentDate.UTC()
	}

	payment := &models.Payment{
		UnitID:           unit.ID,
		UserID:           *unit.OwnerUserID,
		Amount:           models.Round2(input.Amount),
		Method:           input.Method,
		Status:           models.PaymentStatusSucceeded,
		PaymentDate:      paymentDate,
		Description:      input.Description,
		RecordedByUserID: &recordedBy,
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Payment.Create(ctx, payment); err != nil {
			return err
		}
		return s.applyPayment(ctx, tx, payment, unit, input.TargetChargeID)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &recordedBy, models.AuditActionCreate, "payment", payment.ID, payment.ToResponse(), ip)
	s.notifySettled(ctx, payment, unit)

	return s.FindByID(ctx, payment.ID)
}

// applyPayment allocates a settled payment and writes its ledger credit.
// Must run inside the transaction that created or settled the payment.
func (s *PaymentService) applyPayment(ctx context.Context, tx *repository.Repositories, payment *models.Payment, unit *models.Unit, targetChargeID *uint) error {
	var plan AllocationPlan
	now := time.Now().UTC()

	if targetChargeID != nil {
		charge, err := tx.Charge.FindByIDForUpdate(ctx, *targetChargeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if charge.UnitID != payment.UnitID {
			return fmt.Errorf("%w: charge belongs to another unit", ErrValidation)
		}
		plan = PlanTargetedAllocation(payment.Amount, charge)
	} else {
		charges, err := tx.Charge.FindOutstandingByUnitForUpdate(ctx, payment.UnitID)
		if err != nil {
			return err
		}
		plan = PlanAllocation(payment.Amount, charges)
	}

	if err := s.applySlices(ctx, tx, payment.ID, plan); err != nil {
		return err
	}

	category := models.LedgerCategoryDues
	if len(plan.Slices) == 0 {
		category = models.LedgerCategoryAdvance
	}

	entry := &models.LedgerEntry{
		BuildingID:  unit.BuildingID,
		UnitID:      &unit.ID,
		EntryType:   models.EntryTypePayment,
		Category:    category,
		Description: fmt.Sprintf("Payment (%s) unit %s", payment.Method, unit.Number),
		Credit:      payment.Amount,
		PaymentID:   &payment.ID,
		EntryDate:   now,
	}
	return tx.Ledger.Append(ctx, entry)
}

// applySlices writes the allocation rows of a plan and bumps the affected
// charges. Must run inside a transaction.
func (s *PaymentService) applySlices(ctx context.Context, tx *repository.Repositories, paymentID uint, plan AllocationPlan) error {
	now := time.Now().UTC()
	for _, slice := range plan.Slices {
		allocation := &models.PaymentAllocation{
			PaymentID:       paymentID,
			UnitChargeID:    slice.ChargeID,
			AllocatedAmount: slice.Amount,
		}
		if err := tx.Allocation.Create(ctx, allocation); err != nil {
			return err
		}

		charge, err := tx.Charge.FindByIDForUpdate(ctx, slice.ChargeID)
		if err != nil {
			return err
		}
		charge.AmountPaid = models.Round2(charge.AmountPaid + slice.Amount)
		charge.RefreshStatus(now)
		if err := tx.Charge.Update(ctx, charge); err != nil {
			return err
		}
	}
	return nil
}

// AllocateAdvanceCredit applies a settled payment's unallocated remainder to
// the unit's outstanding charges, or to one target charge. No ledger entry
// is written; the credit was already posted when the payment settled.
func (s *PaymentService) AllocateAdvanceCredit(ctx context.Context, paymentID uint, targetChargeID *uint, actorID uint, ip string) (*models.Payment, error) {
	payment, err := s.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusSucceeded {
		return nil, fmt.Errorf("%w: only settled payments hold allocatable credit", ErrInvalidState)
	}

	credit := payment.UnallocatedAmount()
	if credit <= 0 {
		return nil, fmt.Errorf("%w: payment has no unallocated amount", ErrInvalidState)
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		var plan AllocationPlan

		if targetChargeID != nil {
			charge, err := tx.Charge.FindByIDForUpdate(ctx, *targetChargeID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			if charge.UnitID != payment.UnitID {
				return fmt.Errorf("%w: charge belongs to another unit", ErrValidation)
			}
			plan = PlanTargetedAllocation(credit, charge)
		} else {
			charges, err := tx.Charge.FindOutstandingByUnitForUpdate(ctx, payment.UnitID)
			if err != nil {
				return err
			}
			plan = PlanAllocation(credit, charges)
		}

		if len(plan.Slices) == 0 {
			return fmt.Errorf("%w: no outstanding charge can absorb the credit", ErrInvalidState)
		}
		return s.applySlices(ctx, tx, payment.ID, plan)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, &actorID, models.AuditActionUpdate, "payment", payment.ID, updated.ToResponse(), ip)
	return updated, nil
}

// reverseAllocations takes a payment's money back off its charges and
// removes the allocation rows. Used before re-applying an edited payment
// and when deleting or cancelling one.
func (s *PaymentService) reverseAllocations(ctx context.Context, tx *repository.Repositories, payment *models.Payment) error {
	allocations, err := tx.Allocation.FindByPayment(ctx, payment.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, allocation := range allocations {
		charge, err := tx.Charge.FindByIDForUpdate(ctx, allocation.UnitChargeID)
		if err != nil {
			return err
		}
		charge.AmountPaid = models.Round2(charge.AmountPaid - allocation.AllocatedAmount)
		if charge.AmountPaid < 0 {
			charge.AmountPaid = 0
		}
		charge.RefreshStatus(now)
		if err := tx.Charge.Update(ctx, charge); err != nil {
			return err
		}
	}

	return tx.Allocation.DeleteByPayment(ctx, payment.ID)
}

// ChargeCard starts a card payment through the processor. The payment stays
// pending until the provider webhook settles it.
func (s *PaymentService) ChargeCard(ctx context.Context, unitID uint, amount float64, cardToken string, userID uint) (*models.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if cardToken == "" {
		return nil, fmt.Errorf("%w: card token is required", ErrValidation)
	}

	unit, err := s.repos.Unit.FindByIDWithOwner(ctx, unitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	currency := unit.Building.Currency
	result, err := s.processor.Charge(ctx, cardToken, amount, currency)
	if err != nil {
		return nil, fmt.Errorf("card processor error: %w", err)
	}

	payment := &models.Payment{
		UnitID:            unit.ID,
		UserID:            userID,
		Amount:            models.Round2(amount),
		Method:            models.PaymentMethodCard,
		Status:            models.PaymentStatusPending,
		PaymentDate:       time.Now().UTC(),
		ProviderReference: &result.ProviderReference,
	}
	if result.Status == gateway.ChargeStatusFailed {
		payment.Status = models.PaymentStatusFailed
	}

	if err := s.repos.Payment.Create(ctx, payment); err != nil {
		return nil, err
	}

	if payment.Status == models.PaymentStatusFailed {
		s.notificationSvc.NotifyUser(ctx, userID, "Payment failed",
			fmt.Sprintf("Your card payment of %.2f was declined.", amount),
			models.NotificationTypePaymentFailed)
	}

	logger.Info(fmt.Sprintf("Card payment %d created for unit %d, ref %s, status %s",
		payment.ID, unit.ID, result.ProviderReference, payment.Status))

	return payment, nil
}

// HandleProviderWebhook settles or fails a pending card payment when the
// processor reports the outcome. Events for unknown references are
// rejected; repeated events for an already final payment are ignored.
func (s *PaymentService) HandleProviderWebhook(ctx context.Context, event *WebhookEvent) error {
	payment, err := s.repos.Payment.FindByProviderReference(ctx, event.Reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if payment.Status != models.PaymentStatusPending {
		logger.Info(fmt.Sprintf("Ignoring webhook for payment %d already in status %s", payment.ID, payment.Status))
		return nil
	}

	switch event.Status {
	case gateway.ChargeStatusSucceeded:
		return s.settleCardPayment(ctx, payment.ID, event.RawPayload)
	case gateway.ChargeStatusFailed:
		fsm := statemachine.NewPaymentFSM(payment)
		if err := fsm.Fail(ctx); err != nil {
			return err
		}
		payment.ProviderPayload = event.RawPayload
		if err := s.repos.Payment.Update(ctx, payment); err != nil {
			return err
		}
		s.notificationSvc.NotifyUser(ctx, payment.UserID, "Payment failed",
			fmt.Sprintf("Your card payment of %.2f was declined by the processor.", payment.Amount),
			models.NotificationTypePaymentFailed)
		return nil
	default:
		return fmt.Errorf("%w: unknown webhook status %q", ErrValidation, event.Status)
	}
}

func (s *PaymentService) settleCardPayment(ctx context.Context, paymentID uint, rawPayload []byte) error {
	var payment *models.Payment
	var unit *models.Unit

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		var err error
		payment, err = tx.Payment.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusPending {
			return nil
		}

		fsm := statemachine.NewPaymentFSM(payment)
		if err := fsm.Settle(ctx); err != nil {
			return err
		}
		payment.ProviderPayload = rawPayload
		if err := tx.Payment.Update(ctx, payment); err != nil {
			return err
		}

		unit, err = tx.Unit.FindByIDWithOwner(ctx, payment.UnitID)
		if err != nil {
			return err
		}

		return s.applyPayment(ctx, tx, payment, unit, nil)
	})
	if err != nil {
		return err
	}

	if unit != nil {
		s.notifySettled(ctx, payment, unit)
	}
	return nil
}

func (s *PaymentService) notifySettled(ctx context.Context, payment *models.Payment, unit *models.Unit) {
	s.notificationSvc.NotifyUser(ctx, payment.UserID, "Payment received",
		fmt.Sprintf("Your payment of %.2f for unit %s was received.", payment.Amount, unit.Number),
		models.NotificationTypePaymentReceived)

	if unit.OwnerUser != nil {
		if err := s.emailSvc.SendPaymentReceived(ctx, unit.OwnerUser, payment, unit.Number); err != nil {
			logger.Error(fmt.Sprintf("failed to email payment confirmation for payment %d: %v", payment.ID, err))
		}
	}
}

// UpdateManualPayment corrects an offline payment. Its previous allocations
// are unwound, the old credit reversed in the ledger, and the new amount
// re-applied from scratch.
func (s *PaymentService) UpdateManualPayment(ctx context.Context, id uint, amount float64, paymentDate *time.Time, description *string, actorID uint, ip string) (*models.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !payment.MayEdit() {
			return fmt.Errorf("%w: only settled manual payments can be edited", ErrInvalidState)
		}

		unit, err := tx.Unit.FindByIDWithOwner(ctx, payment.UnitID)
		if err != nil {
			return err
		}

		if err := s.reverseAllocations(ctx, tx, payment); err != nil {
			return err
		}

		reversal := &models.LedgerEntry{
			BuildingID:  unit.BuildingID,
			UnitID:      &unit.ID,
			EntryType:   models.EntryTypePayment,
			Category:    models.LedgerCategoryReversal,
			Description: fmt.Sprintf("Payment %d corrected", payment.ID),
			Debit:       payment.Amount,
			PaymentID:   &payment.ID,
			EntryDate:   time.Now().UTC(),
		}
		if err := tx.Ledger.Append(ctx, reversal); err != nil {
			return err
		}

		payment.Amount = models.Round2(amount)
		if paymentDate != nil {
			payment.PaymentDate = paymentDate.UTC()
		}
		if description != nil {
			payment.Description = description
		}
		if err := tx.Payment.Update(ctx, payment); err != nil {
			return err
		}

		return s.applyPayment(ctx, tx, payment, unit, nil)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, &actorID, models.AuditActionUpdate, "payment", id, map[string]any{"amount": amount}, ip)

	return s.FindByID(ctx, id)
}

// DeleteManualPayment removes an offline payment entered in error. Charges
// it covered become outstanding again and the ledger credit is reversed.
func (s *PaymentService) DeleteManualPayment(ctx context.Context, id uint, actorID uint, ip string) error {
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		payment, err := tx.Payment.FindByIDForUpdate(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if !payment.IsManual() {
			return fmt.Errorf("%w: card payments cannot be deleted", ErrInvalidState)
		}

		unit, err := tx.Unit.FindByID(ctx, payment.UnitID)
		if err != nil {
			return err
		}

		if err := s.reverseAllocations(ctx, tx, payment); err != nil {
			return err
		}

		if payment.Status == models.PaymentStatusSucceeded {
			reversal := &models.LedgerEntry{
				BuildingID:  unit.BuildingID,
				UnitID:      &unit.ID,
				EntryType:   models.EntryTypePayment,
				Category:    models.LedgerCategoryReversal,
				Description: fmt.Sprintf("Payment %d deleted", payment.ID),
				Debit:       payment.Amount,
				PaymentID:   &payment.ID,
				EntryDate:   time.Now().UTC(),
			}
			if err := tx.Ledger.Append(ctx, reversal); err != nil {
				return err
			}
		}

		return tx.Payment.Delete(ctx, payment.ID)
	})
	if err != nil {
		return err
	}

	s.auditSvc.Log(ctx, &actorID, models.AuditActionDelete, "payment", id, nil, ip)
	return nil
}

// UploadReceipt attaches a scanned receipt to a payment
func (s *PaymentService) UploadReceipt(ctx context.Context, id uint, file multipart.File, header *multipart.FileHeader) (*models.Payment, error) {
	payment, err := s.repos.Payment.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if header.Size > storage.MaxFileSize() {
		return nil, fmt.Errorf("%w: file exceeds maximum size", ErrValidation)
	}
	if !storage.IsValidContentType(header.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%w: unsupported file type", ErrValidation)
	}

	path, err := s.storage.Upload(file, header, "receipts")
	if err != nil {
		return nil, err
	}

	payment.ReceiptPath = &path
	if err := s.repos.Payment.Update(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// ReceiptFullPath resolves the payment's stored receipt for serving
func (s *PaymentService) ReceiptFullPath(ctx context.Context, id uint) (string, error) {
	payment, err := s.repos.Payment.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if payment.ReceiptPath == nil || *payment.ReceiptPath == "" {
		return "", ErrNotFound
	}
	return s.storage.SafeFullPath(*payment.ReceiptPath)
}

// SendUpcomingDueReminders emails owners whose charges fall due within the
// next daysAhead days. Returns the number of reminders sent.
func (s *PaymentService) SendUpcomingDueReminders(ctx context.Context, daysAhead int) (int, error) {
	now := time.Now().UTC()
	to := now.AddDate(0, 0, daysAhead)

	charges, err := s.repos.Charge.FindDueSoon(ctx, now, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range charges {
		charge := &charges[i]
		unit, err := s.repos.Unit.FindByIDWithOwner(ctx, charge.UnitID)
		if err != nil || unit.OwnerUser == nil {
			continue
		}

		s.notificationSvc.NotifyUser(ctx, unit.OwnerUser.ID, "Dues reminder",
			fmt.Sprintf("Unit %s owes %.2f for %s, due %s.", unit.Number, charge.Balance(), charge.Period, charge.DueDate.Format("2006-01-02")),
			models.NotificationTypeChargeOverdue)

		if err := s.emailSvc.SendChargeReminder(ctx, unit.OwnerUser, charge, unit.Number); err != nil {
			logger.Error(fmt.Sprintf("failed to send reminder for charge %d: %v", charge.ID, err))
			continue
		}
		sent++
	}
	return sent, nil
}
