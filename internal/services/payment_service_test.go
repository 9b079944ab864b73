package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/config"
	"github.com/habitek/habitek-api/internal/gateway"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

func uintPtr(v uint) *uint { return &v }

type paymentServiceFixture struct {
	service          *PaymentService
	chargeRepo       *mockChargeRepo
	paymentRepo      *mockPaymentRepo
	allocationRepo   *mockAllocationRepo
	ledgerRepo       *mockLedgerRepo
	notificationRepo *mockNotificationRepo
}

func newPaymentServiceFixture(units ...models.Unit) *paymentServiceFixture {
	allocationRepo := newMockAllocationRepo()
	chargeRepo := newMockChargeRepo()
	paymentRepo := newMockPaymentRepo(allocationRepo)
	ledgerRepo := &mockLedgerRepo{}
	notificationRepo := &mockNotificationRepo{}

	repos := &repository.Repositories{
		Unit:       newMockUnitRepo(units...),
		Charge:     chargeRepo,
		Payment:    paymentRepo,
		Allocation: allocationRepo,
		Ledger:     ledgerRepo,
	}

	notificationSvc := NewNotificationService(notificationRepo, newMockUserRepo())
	auditSvc := NewAuditService(&mockAuditLogRepo{})
	emailSvc := NewEmailService(&config.Config{})

	return &paymentServiceFixture{
		service:          NewPaymentService(repos, gateway.NewSandboxProcessor(), notificationSvc, emailSvc, auditSvc, nil),
		chargeRepo:       chargeRepo,
		paymentRepo:      paymentRepo,
		allocationRepo:   allocationRepo,
		ledgerRepo:       ledgerRepo,
		notificationRepo: notificationRepo,
	}
}

func ownedUnit() models.Unit {
	return models.Unit{ID: 1, BuildingID: 5, Number: "101", OwnerUserID: uintPtr(9), IsActive: true}
}

func (f *paymentServiceFixture) addCharge(id uint, period string, due, paid float64) *models.UnitCharge {
	return f.chargeRepo.add(models.UnitCharge{
		ID:         id,
		UnitID:     1,
		BuildingID: 5,
		Period:     period,
		AmountDue:  due,
		AmountPaid: paid,
		DueDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:     models.ChargeStatusPending,
	})
}

func TestRecordManualPaymentAllocatesOldestFirst(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)
	f.addCharge(2, "2026-02", 100, 0)

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 150,
		Method: models.PaymentMethodBankTransfer,
	}, 3, "127.0.0.1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, payment.Status)
	assert.Equal(t, uint(9), payment.UserID)

	require.Len(t, payment.Allocations, 2)
	assert.Equal(t, uint(1), payment.Allocations[0].UnitChargeID)
	assert.Equal(t, 100.0, payment.Allocations[0].AllocatedAmount)
	assert.Equal(t, uint(2), payment.Allocations[1].UnitChargeID)
	assert.Equal(t, 50.0, payment.Allocations[1].AllocatedAmount)

	assert.Equal(t, models.ChargeStatusPaid, f.chargeRepo.charges[1].Status)
	assert.Equal(t, models.ChargeStatusPartiallyPaid, f.chargeRepo.charges[2].Status)

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, models.EntryTypePayment, entry.EntryType)
	assert.Equal(t, models.LedgerCategoryDues, entry.Category)
	assert.Equal(t, 150.0, entry.Credit)
}

func TestRecordManualPaymentBecomesAdvanceCredit(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 200,
		Method: models.PaymentMethodCash,
	}, 3, "")

	require.NoError(t, err)
	assert.Empty(t, payment.Allocations)
	assert.Equal(t, 200.0, payment.UnallocatedAmount())

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, models.LedgerCategoryAdvance, entry.Category)
}

func TestAllocateAdvanceCredit(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())

	// Settled payment with nothing to absorb it yet
	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 80,
		Method: models.PaymentMethodCash,
	}, 3, "")
	require.NoError(t, err)
	require.Equal(t, 80.0, payment.UnallocatedAmount())

	// A charge arrives; the held credit can now be applied
	f.addCharge(10, "2026-04", 100, 0)
	ledgerBefore := len(f.ledgerRepo.entries)

	updated, err := f.service.AllocateAdvanceCredit(context.Background(), payment.ID, nil, 3, "")

	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.UnallocatedAmount())
	assert.Equal(t, 80.0, f.chargeRepo.charges[10].AmountPaid)
	assert.Equal(t, models.ChargeStatusPartiallyPaid, f.chargeRepo.charges[10].Status)

	// The credit was posted to the ledger at settlement, not again here
	assert.Len(t, f.ledgerRepo.entries, ledgerBefore)
}

func TestAllocateAdvanceCreditNothingToAllocate(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 100,
		Method: models.PaymentMethodCash,
	}, 3, "")
	require.NoError(t, err)
	require.Equal(t, 0.0, payment.UnallocatedAmount())

	_, err = f.service.AllocateAdvanceCredit(context.Background(), payment.ID, nil, 3, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAllocateAdvanceCreditPendingPayment(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	pending := f.paymentRepo.add(models.Payment{
		UnitID: 1,
		UserID: 9,
		Amount: 50,
		Method: models.PaymentMethodCard,
		Status: models.PaymentStatusPending,
	})

	_, err := f.service.AllocateAdvanceCredit(context.Background(), pending.ID, nil, 3, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRecordManualPaymentTargetedCharge(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)
	f.addCharge(2, "2026-02", 100, 0)

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID:         1,
		Amount:         80,
		Method:         models.PaymentMethodCheck,
		TargetChargeID: uintPtr(2),
	}, 3, "")

	require.NoError(t, err)
	require.Len(t, payment.Allocations, 1)
	assert.Equal(t, uint(2), payment.Allocations[0].UnitChargeID)

	// The older charge stays untouched
	assert.Equal(t, 0.0, f.chargeRepo.charges[1].AmountPaid)
	assert.Equal(t, 80.0, f.chargeRepo.charges[2].AmountPaid)
}

func TestRecordManualPaymentTargetedChargeWrongUnit(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.chargeRepo.add(models.UnitCharge{ID: 7, UnitID: 99, BuildingID: 5, Period: "2026-01", AmountDue: 100})

	_, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID:         1,
		Amount:         80,
		Method:         models.PaymentMethodCash,
		TargetChargeID: uintPtr(7),
	}, 3, "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordManualPaymentValidation(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())

	_, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1, Amount: -5, Method: models.PaymentMethodCash,
	}, 3, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1, Amount: 50, Method: "card",
	}, 3, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 42, Amount: 50, Method: models.PaymentMethodCash,
	}, 3, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordManualPaymentUnitWithoutOwner(t *testing.T) {
	f := newPaymentServiceFixture(models.Unit{ID: 1, BuildingID: 5, Number: "101", IsActive: true})

	_, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1, Amount: 50, Method: models.PaymentMethodCash,
	}, 3, "")

	assert.ErrorIs(t, err, ErrValidation)
}

func refStr(s string) *string { return &s }

func TestHandleProviderWebhookUnknownReference(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())

	err := f.service.HandleProviderWebhook(context.Background(), &WebhookEvent{
		Reference: "sb_missing",
		Status:    gateway.ChargeStatusSucceeded,
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleProviderWebhookSettlesPendingPayment(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)
	f.paymentRepo.add(models.Payment{
		ID:                1,
		UnitID:            1,
		UserID:            9,
		Amount:            100,
		Method:            models.PaymentMethodCard,
		Status:            models.PaymentStatusPending,
		PaymentDate:       time.Now().UTC(),
		ProviderReference: refStr("sb_abc"),
	})

	err := f.service.HandleProviderWebhook(context.Background(), &WebhookEvent{
		Reference:  "sb_abc",
		Status:     gateway.ChargeStatusSucceeded,
		RawPayload: []byte(`{"reference":"sb_abc","status":"succeeded"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, f.paymentRepo.payments[1].Status)
	assert.Equal(t, models.ChargeStatusPaid, f.chargeRepo.charges[1].Status)

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, 100.0, entry.Credit)
}

func TestHandleProviderWebhookFailsPendingPayment(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.paymentRepo.add(models.Payment{
		ID:                1,
		UnitID:            1,
		UserID:            9,
		Amount:            100,
		Method:            models.PaymentMethodCard,
		Status:            models.PaymentStatusPending,
		ProviderReference: refStr("sb_abc"),
	})

	err := f.service.HandleProviderWebhook(context.Background(), &WebhookEvent{
		Reference: "sb_abc",
		Status:    gateway.ChargeStatusFailed,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, f.paymentRepo.payments[1].Status)
	assert.Empty(t, f.ledgerRepo.entries)
	require.Len(t, f.notificationRepo.created, 1)
	assert.Equal(t, models.NotificationTypePaymentFailed, f.notificationRepo.created[0].NotificationType)
}

func TestHandleProviderWebhookIgnoresRepeatedEvents(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.paymentRepo.add(models.Payment{
		ID:                1,
		UnitID:            1,
		UserID:            9,
		Amount:            100,
		Method:            models.PaymentMethodCard,
		Status:            models.PaymentStatusSucceeded,
		ProviderReference: refStr("sb_abc"),
	})

	err := f.service.HandleProviderWebhook(context.Background(), &WebhookEvent{
		Reference: "sb_abc",
		Status:    gateway.ChargeStatusSucceeded,
	})

	require.NoError(t, err)
	// No second allocation pass, no extra ledger rows
	assert.Empty(t, f.allocationRepo.allocations)
	assert.Empty(t, f.ledgerRepo.entries)
}

func TestHandleProviderWebhookUnknownStatus(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.paymentRepo.add(models.Payment{
		ID:                1,
		UnitID:            1,
		Status:            models.PaymentStatusPending,
		ProviderReference: refStr("sb_abc"),
	})

	err := f.service.HandleProviderWebhook(context.Background(), &WebhookEvent{
		Reference: "sb_abc",
		Status:    "on_hold",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateManualPaymentReallocates(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 100,
		Method: models.PaymentMethodCash,
	}, 3, "")
	require.NoError(t, err)
	require.Equal(t, models.ChargeStatusPaid, f.chargeRepo.charges[1].Status)

	updated, err := f.service.UpdateManualPayment(context.Background(), payment.ID, 60, nil, nil, 3, "")

	require.NoError(t, err)
	assert.Equal(t, 60.0, updated.Amount)
	assert.Equal(t, 60.0, f.chargeRepo.charges[1].AmountPaid)
	require.Len(t, updated.Allocations, 1)
	assert.Equal(t, 60.0, updated.Allocations[0].AllocatedAmount)

	// Reversal debit for the old amount plus the re-applied credit
	entries := f.ledgerRepo.entries
	require.GreaterOrEqual(t, len(entries), 3)
	reversal := entries[len(entries)-2]
	assert.Equal(t, models.LedgerCategoryReversal, reversal.Category)
	assert.Equal(t, 100.0, reversal.Debit)
	assert.Equal(t, 60.0, entries[len(entries)-1].Credit)
}

func TestUpdateCardPaymentRejected(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.paymentRepo.add(models.Payment{
		ID:     1,
		UnitID: 1,
		Amount: 100,
		Method: models.PaymentMethodCard,
		Status: models.PaymentStatusSucceeded,
	})

	_, err := f.service.UpdateManualPayment(context.Background(), 1, 60, nil, nil, 3, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeleteManualPaymentReversesAllocations(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.addCharge(1, "2026-01", 100, 0)

	payment, err := f.service.RecordManualPayment(context.Background(), &ManualPaymentInput{
		UnitID: 1,
		Amount: 100,
		Method: models.PaymentMethodBankTransfer,
	}, 3, "")
	require.NoError(t, err)

	err = f.service.DeleteManualPayment(context.Background(), payment.ID, 3, "")

	require.NoError(t, err)
	assert.NotContains(t, f.paymentRepo.payments, payment.ID)
	assert.Empty(t, f.allocationRepo.allocations)

	charge := f.chargeRepo.charges[1]
	assert.Equal(t, 0.0, charge.AmountPaid)
	assert.NotEqual(t, models.ChargeStatusPaid, charge.Status)

	entry := f.ledgerRepo.lastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, models.LedgerCategoryReversal, entry.Category)
	assert.Equal(t, 100.0, entry.Debit)
}

func TestDeleteCardPaymentRejected(t *testing.T) {
	f := newPaymentServiceFixture(ownedUnit())
	f.paymentRepo.add(models.Payment{
		ID:     1,
		UnitID: 1,
		Amount: 100,
		Method: models.PaymentMethodCard,
		Status: models.PaymentStatusSucceeded,
	})

	err := f.service.DeleteManualPayment(context.Background(), 1, 3, "")

	assert.ErrorIs(t, err, ErrInvalidState)
}
