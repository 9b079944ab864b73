package services

import (
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/models"
)

func newReportServiceFixture() (*ReportService, *mockChargeRepo) {
	chargeRepo := newMockChargeRepo()
	buildingRepo := newMockBuildingRepo(models.Building{ID: 5, Name: "Torre Norte", IsActive: true})
	return NewReportService(chargeRepo, buildingRepo, &mockLedgerRepo{}), chargeRepo
}

func reportCharge(id, unitID uint, number, period string, due, paid float64, status string) models.UnitCharge {
	return models.UnitCharge{
		ID:         id,
		UnitID:     unitID,
		BuildingID: 5,
		Period:     period,
		AmountDue:  due,
		AmountPaid: paid,
		DueDate:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:     status,
		Unit:       models.Unit{ID: unitID, BuildingID: 5, Number: number},
	}
}

func TestCollectionReport(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	chargeRepo.add(reportCharge(1, 1, "101", "2026-03", 100, 100, models.ChargeStatusPaid))
	chargeRepo.add(reportCharge(2, 2, "102", "2026-03", 100, 40, models.ChargeStatusPartiallyPaid))
	chargeRepo.add(reportCharge(3, 3, "103", "2026-03", 100, 0, models.ChargeStatusPending))

	report, err := service.CollectionReport(context.Background(), 5, "2026-03")

	require.NoError(t, err)
	assert.Equal(t, 300.0, report.TotalDue)
	assert.Equal(t, 140.0, report.TotalPaid)
	assert.Equal(t, 46.7, report.CollectionRatePercent)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, "101", report.Rows[0].UnitNumber)
}

func TestCollectionReportExcludesCancelled(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	chargeRepo.add(reportCharge(1, 1, "101", "2026-03", 100, 100, models.ChargeStatusPaid))
	cancelled := reportCharge(2, 2, "102", "2026-03", 100, 0, models.ChargeStatusCancelled)
	now := time.Now()
	cancelled.CancelledAt = &now
	chargeRepo.add(cancelled)

	report, err := service.CollectionReport(context.Background(), 5, "2026-03")

	require.NoError(t, err)
	assert.Equal(t, 100.0, report.TotalDue)
	assert.Len(t, report.Rows, 1)
	assert.Equal(t, 100.0, report.CollectionRatePercent)
}

func TestCollectionReportEmptyPeriod(t *testing.T) {
	service, _ := newReportServiceFixture()

	report, err := service.CollectionReport(context.Background(), 5, "2026-03")

	require.NoError(t, err)
	assert.Equal(t, 0.0, report.TotalDue)
	assert.Equal(t, 0.0, report.CollectionRatePercent)
	assert.Empty(t, report.Rows)
}

func TestCollectionReportRateCappedAt100(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	chargeRepo.add(reportCharge(1, 1, "101", "2026-03", 100, 130, models.ChargeStatusPaid))

	report, err := service.CollectionReport(context.Background(), 5, "2026-03")

	require.NoError(t, err)
	assert.Equal(t, 100.0, report.CollectionRatePercent)
}

func TestCollectionReportUnknownBuilding(t *testing.T) {
	service, _ := newReportServiceFixture()

	_, err := service.CollectionReport(context.Background(), 99, "2026-03")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionReportBadPeriod(t *testing.T) {
	service, _ := newReportServiceFixture()

	_, err := service.CollectionReport(context.Background(), 5, "03/2026")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestAgingReportBucketsPerCharge(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	now := time.Now().UTC()

	// One unit owing in two different buckets
	recent := reportCharge(1, 1, "101", "2026-02", 100, 0, models.ChargeStatusOverdue)
	recent.DueDate = now.AddDate(0, 0, -10)
	chargeRepo.add(recent)

	old := reportCharge(2, 1, "101", "2026-01", 100, 60, models.ChargeStatusOverdue)
	old.DueDate = now.AddDate(0, 0, -45)
	chargeRepo.add(old)

	// A second unit still current
	current := reportCharge(3, 2, "102", "2026-03", 80, 0, models.ChargeStatusPending)
	current.DueDate = now.AddDate(0, 0, 5)
	chargeRepo.add(current)

	report, err := service.AgingReport(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	first := report.Rows[0]
	assert.Equal(t, uint(1), first.UnitID)
	assert.Equal(t, 100.0, first.Buckets[models.AgingBucket1To30])
	assert.Equal(t, 40.0, first.Buckets[models.AgingBucket31To60])
	assert.Equal(t, 140.0, first.Total)

	second := report.Rows[1]
	assert.Equal(t, 80.0, second.Buckets[models.AgingBucketCurrent])

	assert.Equal(t, 100.0, report.Totals[models.AgingBucket1To30])
	assert.Equal(t, 40.0, report.Totals[models.AgingBucket31To60])
	assert.Equal(t, 80.0, report.Totals[models.AgingBucketCurrent])
}

func TestAgingReportSkipsSettledCharges(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	chargeRepo.add(reportCharge(1, 1, "101", "2026-02", 100, 100, models.ChargeStatusPaid))

	report, err := service.AgingReport(context.Background(), 5)

	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	assert.Empty(t, report.Totals)
}

func TestGenerateCollectionCSV(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	chargeRepo.add(reportCharge(1, 1, "101", "2026-03", 100, 100, models.ChargeStatusPaid))
	chargeRepo.add(reportCharge(2, 2, "102", "2026-03", 100, 0, models.ChargeStatusPending))

	buf, err := service.GenerateCollectionCSV(context.Background(), 5, "2026-03")
	require.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4) // header + 2 rows + total
	assert.Equal(t, []string{"Unit", "Amount Due", "Amount Paid", "Status"}, records[0])
	assert.Equal(t, []string{"101", "100.00", "100.00", "paid"}, records[1])
	assert.Equal(t, []string{"TOTAL", "200.00", "100.00", "50.0%"}, records[3])
}

func TestGenerateAgingCSV(t *testing.T) {
	service, chargeRepo := newReportServiceFixture()
	now := time.Now().UTC()
	overdue := reportCharge(1, 1, "101", "2026-02", 100, 0, models.ChargeStatusOverdue)
	overdue.DueDate = now.AddDate(0, 0, -10)
	chargeRepo.add(overdue)

	buf, err := service.GenerateAgingCSV(context.Background(), 5)
	require.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3) // header + 1 row + total
	assert.Equal(t, []string{"Unit", "current", "1-30", "31-60", "61-90", "90+", "Total"}, records[0])
	assert.Equal(t, []string{"101", "0.00", "100.00", "0.00", "0.00", "0.00", "100.00"}, records[1])
	assert.Equal(t, []string{"TOTAL", "0.00", "100.00", "0.00", "0.00", "0.00", "100.00"}, records[2])
}
