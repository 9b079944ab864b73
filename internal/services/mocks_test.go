package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// In-memory repository doubles shared by the service tests. Each mock embeds
// the interface so only the methods a test exercises need an implementation.

type mockChargeRepo struct {
	repository.ChargeRepository
	charges map[uint]*models.UnitCharge
	nextID  uint
}

func newMockChargeRepo() *mockChargeRepo {
	return &mockChargeRepo{charges: make(map[uint]*models.UnitCharge), nextID: 1}
}

func (m *mockChargeRepo) add(charge models.UnitCharge) *models.UnitCharge {
	if charge.ID == 0 {
		charge.ID = m.nextID
	}
	if charge.ID >= m.nextID {
		m.nextID = charge.ID + 1
	}
	stored := charge
	m.charges[stored.ID] = &stored
	return &stored
}

func (m *mockChargeRepo) FindByID(ctx context.Context, id uint) (*models.UnitCharge, error) {
	charge, ok := m.charges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return charge, nil
}

func (m *mockChargeRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.UnitCharge, error) {
	return m.FindByID(ctx, id)
}

func (m *mockChargeRepo) Create(ctx context.Context, charge *models.UnitCharge) error {
	charge.ID = m.nextID
	m.nextID++
	m.charges[charge.ID] = charge
	return nil
}

func (m *mockChargeRepo) Update(ctx context.Context, charge *models.UnitCharge) error {
	m.charges[charge.ID] = charge
	return nil
}

func (m *mockChargeRepo) ExistsForUnitAndPeriod(ctx context.Context, unitID uint, period string) (bool, error) {
	for _, c := range m.charges {
		if c.UnitID == unitID && c.Period == period {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockChargeRepo) FindByBuildingAndPeriod(ctx context.Context, buildingID uint, period string) ([]models.UnitCharge, error) {
	var out []models.UnitCharge
	for _, c := range m.charges {
		if c.BuildingID == buildingID && c.Period == period {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockChargeRepo) FindOutstandingByBuilding(ctx context.Context, buildingID uint) ([]models.UnitCharge, error) {
	var out []models.UnitCharge
	for _, c := range m.charges {
		if c.BuildingID == buildingID && c.IsOutstanding() {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].Period < out[j].Period
	})
	return out, nil
}

func (m *mockChargeRepo) FindOverdueCandidates(ctx context.Context, now time.Time) ([]models.UnitCharge, error) {
	var out []models.UnitCharge
	for _, c := range m.charges {
		if c.IsOutstanding() && now.After(c.DueDate) && c.Status != models.ChargeStatusOverdue {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockChargeRepo) FindOutstandingByUnitForUpdate(ctx context.Context, unitID uint) ([]models.UnitCharge, error) {
	var out []models.UnitCharge
	for _, c := range m.charges {
		if c.UnitID == unitID && c.IsOutstanding() {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type mockPaymentRepo struct {
	repository.PaymentRepository
	payments    map[uint]*models.Payment
	allocations *mockAllocationRepo
	nextID      uint
}

func newMockPaymentRepo(allocations *mockAllocationRepo) *mockPaymentRepo {
	return &mockPaymentRepo{
		payments:    make(map[uint]*models.Payment),
		allocations: allocations,
		nextID:      1,
	}
}

func (m *mockPaymentRepo) add(payment models.Payment) *models.Payment {
	if payment.ID == 0 {
		payment.ID = m.nextID
	}
	if payment.ID >= m.nextID {
		m.nextID = payment.ID + 1
	}
	stored := payment
	m.payments[stored.ID] = &stored
	return &stored
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, ok := m.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return payment, nil
}

func (m *mockPaymentRepo) FindByIDWithAllocations(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	loaded := *payment
	loaded.Allocations, _ = m.allocations.FindByPayment(ctx, id)
	return &loaded, nil
}

func (m *mockPaymentRepo) FindByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	return m.FindByID(ctx, id)
}

func (m *mockPaymentRepo) FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.ProviderReference != nil && *p.ProviderReference == ref {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = m.nextID
	m.nextID++
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	m.payments[payment.ID] = payment
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id uint) error {
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentRepo) FindSucceededWithCreditByUnit(ctx context.Context, unitID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.UnitID != unitID || p.Status != models.PaymentStatusSucceeded {
			continue
		}
		loaded := *p
		loaded.Allocations, _ = m.allocations.FindByPayment(ctx, p.ID)
		if loaded.UnallocatedAmount() > 0 {
			out = append(out, loaded)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	return out, nil
}

type mockAllocationRepo struct {
	repository.AllocationRepository
	allocations []models.PaymentAllocation
	nextID      uint
}

func newMockAllocationRepo() *mockAllocationRepo {
	return &mockAllocationRepo{nextID: 1}
}

func (m *mockAllocationRepo) Create(ctx context.Context, allocation *models.PaymentAllocation) error {
	allocation.ID = m.nextID
	m.nextID++
	m.allocations = append(m.allocations, *allocation)
	return nil
}

func (m *mockAllocationRepo) FindByPayment(ctx context.Context, paymentID uint) ([]models.PaymentAllocation, error) {
	var out []models.PaymentAllocation
	for _, a := range m.allocations {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAllocationRepo) DeleteByPayment(ctx context.Context, paymentID uint) error {
	kept := m.allocations[:0]
	for _, a := range m.allocations {
		if a.PaymentID != paymentID {
			kept = append(kept, a)
		}
	}
	m.allocations = kept
	return nil
}

type mockLedgerRepo struct {
	repository.LedgerRepository
	entries []models.LedgerEntry
}

func (m *mockLedgerRepo) Append(ctx context.Context, entry *models.LedgerEntry) error {
	entry.ID = uint(len(m.entries) + 1)
	prev := 0.0
	if len(m.entries) > 0 {
		prev = m.entries[len(m.entries)-1].BalanceAfter
	}
	entry.BalanceAfter = models.Round2(prev + entry.Credit - entry.Debit)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockLedgerRepo) lastEntry() *models.LedgerEntry {
	if len(m.entries) == 0 {
		return nil
	}
	return &m.entries[len(m.entries)-1]
}

type mockUnitRepo struct {
	repository.UnitRepository
	units map[uint]*models.Unit
}

func newMockUnitRepo(units ...models.Unit) *mockUnitRepo {
	m := &mockUnitRepo{units: make(map[uint]*models.Unit)}
	for i := range units {
		u := units[i]
		m.units[u.ID] = &u
	}
	return m
}

func (m *mockUnitRepo) FindByID(ctx context.Context, id uint) (*models.Unit, error) {
	unit, ok := m.units[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return unit, nil
}

func (m *mockUnitRepo) FindByIDWithOwner(ctx context.Context, id uint) (*models.Unit, error) {
	return m.FindByID(ctx, id)
}

func (m *mockUnitRepo) FindActiveByBuilding(ctx context.Context, buildingID uint) ([]models.Unit, error) {
	var out []models.Unit
	for _, u := range m.units {
		if u.BuildingID == buildingID && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockFeePlanRepo struct {
	repository.FeePlanRepository
	plans   map[uint]*models.FeePlan
	charged map[uint]bool
}

func newMockFeePlanRepo(plans ...models.FeePlan) *mockFeePlanRepo {
	m := &mockFeePlanRepo{plans: make(map[uint]*models.FeePlan), charged: make(map[uint]bool)}
	for i := range plans {
		p := plans[i]
		m.plans[p.ID] = &p
	}
	return m
}

func (m *mockFeePlanRepo) FindByID(ctx context.Context, id uint) (*models.FeePlan, error) {
	plan, ok := m.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (m *mockFeePlanRepo) Update(ctx context.Context, plan *models.FeePlan) error {
	m.plans[plan.ID] = plan
	return nil
}

func (m *mockFeePlanRepo) Delete(ctx context.Context, id uint) error {
	delete(m.plans, id)
	return nil
}

func (m *mockFeePlanRepo) HasCharges(ctx context.Context, id uint) (bool, error) {
	return m.charged[id], nil
}

type mockBuildingRepo struct {
	repository.BuildingRepository
	buildings map[uint]*models.Building
}

func newMockBuildingRepo(buildings ...models.Building) *mockBuildingRepo {
	m := &mockBuildingRepo{buildings: make(map[uint]*models.Building)}
	for i := range buildings {
		b := buildings[i]
		m.buildings[b.ID] = &b
	}
	return m
}

func (m *mockBuildingRepo) FindByID(ctx context.Context, id uint) (*models.Building, error) {
	building, ok := m.buildings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return building, nil
}

type mockNotificationRepo struct {
	repository.NotificationRepository
	created []models.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	m.created = append(m.created, *notification)
	return nil
}

type mockAuditLogRepo struct {
	repository.AuditLogRepository
	created []models.AuditLog
}

func (m *mockAuditLogRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.created = append(m.created, *entry)
	return nil
}

type mockUserRepo struct {
	repository.UserRepository
	users map[uint]*models.User
}

func newMockUserRepo(users ...models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[uint]*models.User)}
	for i := range users {
		u := users[i]
		m.users[u.ID] = &u
	}
	return m
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(m.users) + 1)
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email && !u.IsDiscarded() {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) SetRecoveryCode(ctx context.Context, userID uint, code string, sentAt time.Time) error {
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.RecoveryCode = &code
	user.RecoveryCodeSentAt = &sentAt
	return nil
}

func (m *mockUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}

type mockRefreshTokenRepo struct {
	repository.RefreshTokenRepository
	tokens map[uint]*models.RefreshToken
	nextID uint
}

func newMockRefreshTokenRepo() *mockRefreshTokenRepo {
	return &mockRefreshTokenRepo{tokens: make(map[uint]*models.RefreshToken), nextID: 1}
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ID = m.nextID
	m.nextID++
	m.tokens[token.ID] = token
	return nil
}

func (m *mockRefreshTokenRepo) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id uint) error {
	token, ok := m.tokens[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	token.RevokedAt = &now
	return nil
}

func (m *mockRefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}
