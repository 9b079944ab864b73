package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/repository"
)

// CollectionReport shows how much of a period's billing was collected
type CollectionReport struct {
	BuildingID            uint                  `json:"building_id"`
	Period                string                `json:"period"`
	TotalDue              float64               `json:"total_due"`
	TotalPaid             float64               `json:"total_paid"`
	CollectionRatePercent float64               `json:"collection_rate_percent"`
	Rows                  []CollectionReportRow `json:"rows"`
}

// CollectionReportRow is one unit's line in the collection report
type CollectionReportRow struct {
	UnitID     uint    `json:"unit_id"`
	UnitNumber string  `json:"unit_number"`
	AmountDue  float64 `json:"amount_due"`
	AmountPaid float64 `json:"amount_paid"`
	Status     string  `json:"status"`
}

// AgingReport buckets every unit's outstanding balance by days overdue
type AgingReport struct {
	BuildingID uint               `json:"building_id"`
	AsOf       time.Time          `json:"as_of"`
	Totals     map[string]float64 `json:"totals"`
	Rows       []AgingReportRow   `json:"rows"`
}

// AgingReportRow is one unit's line in the aging report
type AgingReportRow struct {
	UnitID     uint               `json:"unit_id"`
	UnitNumber string             `json:"unit_number"`
	Buckets    map[string]float64 `json:"buckets"`
	Total      float64            `json:"total"`
}

type ReportService struct {
	chargeRepo   repository.ChargeRepository
	buildingRepo repository.BuildingRepository
	ledgerRepo   repository.LedgerRepository
}

func NewReportService(
	chargeRepo repository.ChargeRepository,
	buildingRepo repository.BuildingRepository,
	ledgerRepo repository.LedgerRepository,
) *ReportService {
	return &ReportService{
		chargeRepo:   chargeRepo,
		buildingRepo: buildingRepo,
		ledgerRepo:   ledgerRepo,
	}
}

// CollectionReport sums dues billed vs collected for one building and
// period. Cancelled charges are excluded. The rate is 0 when nothing was
// billed and never exceeds 100 even when advances overpay the period.
func (s *ReportService) CollectionReport(ctx context.Context, buildingID uint, period string) (*CollectionReport, error) {
	if _, err := ParsePeriod(period); err != nil {
		return nil, err
	}
	if _, err := s.buildingRepo.FindByID(ctx, buildingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	charges, err := s.chargeRepo.FindByBuildingAndPeriod(ctx, buildingID, period)
	if err != nil {
		return nil, err
	}

	report := &CollectionReport{BuildingID: buildingID, Period: period}
	for i := range charges {
		charge := &charges[i]
		if charge.Status == models.ChargeStatusCancelled {
			continue
		}

		report.TotalDue = models.Round2(report.TotalDue + charge.AmountDue)
		report.TotalPaid = models.Round2(report.TotalPaid + charge.AmountPaid)
		report.Rows = append(report.Rows, CollectionReportRow{
			UnitID:     charge.UnitID,
			UnitNumber: charge.Unit.Number,
			AmountDue:  charge.AmountDue,
			AmountPaid: charge.AmountPaid,
			Status:     charge.Status,
		})
	}

	if report.TotalDue > 0 {
		rate := report.TotalPaid / report.TotalDue * 100
		if rate > 100 {
			rate = 100
		}
		report.CollectionRatePercent = models.Round1(rate)
	}

	return report, nil
}

// AgingReport distributes each unit's unpaid balances into overdue buckets.
// Each charge lands in the bucket matching its own days overdue, so one
// unit can owe money in several buckets at once.
func (s *ReportService) AgingReport(ctx context.Context, buildingID uint) (*AgingReport, error) {
	if _, err := s.buildingRepo.FindByID(ctx, buildingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	charges, err := s.chargeRepo.FindOutstandingByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	report := &AgingReport{
		BuildingID: buildingID,
		AsOf:       now,
		Totals:     map[string]float64{},
	}

	byUnit := map[uint]*AgingReportRow{}
	var order []uint

	for i := range charges {
		charge := &charges[i]
		balance := charge.Balance()
		if balance <= 0 {
			continue
		}

		row, ok := byUnit[charge.UnitID]
		if !ok {
			row = &AgingReportRow{
				UnitID:     charge.UnitID,
				UnitNumber: charge.Unit.Number,
				Buckets:    map[string]float64{},
			}
			byUnit[charge.UnitID] = row
			order = append(order, charge.UnitID)
		}

		bucket := charge.AgingBucket(now)
		row.Buckets[bucket] = models.Round2(row.Buckets[bucket] + balance)
		row.Total = models.Round2(row.Total + balance)
		report.Totals[bucket] = models.Round2(report.Totals[bucket] + balance)
	}

	for _, unitID := range order {
		report.Rows = append(report.Rows, *byUnit[unitID])
	}

	return report, nil
}

// GenerateCollectionCSV renders the collection report as CSV
func (s *ReportService) GenerateCollectionCSV(ctx context.Context, buildingID uint, period string) (*bytes.Buffer, error) {
	report, err := s.CollectionReport(ctx, buildingID, period)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{"Unit", "Amount Due", "Amount Paid", "Status"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range report.Rows {
		record := []string{
			row.UnitNumber,
			fmt.Sprintf("%.2f", row.AmountDue),
			fmt.Sprintf("%.2f", row.AmountPaid),
			row.Status,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	summary := []string{
		"TOTAL",
		fmt.Sprintf("%.2f", report.TotalDue),
		fmt.Sprintf("%.2f", report.TotalPaid),
		fmt.Sprintf("%.1f%%", report.CollectionRatePercent),
	}
	if err := w.Write(summary); err != nil {
		return nil, err
	}

	w.Flush()
	return b, w.Error()
}

// GenerateAgingCSV renders the aging report as CSV
func (s *ReportService) GenerateAgingCSV(ctx context.Context, buildingID uint) (*bytes.Buffer, error) {
	report, err := s.AgingReport(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	buckets := []string{
		models.AgingBucketCurrent,
		models.AgingBucket1To30,
		models.AgingBucket31To60,
		models.AgingBucket61To90,
		models.AgingBucket90Plus,
	}

	header := append([]string{"Unit"}, buckets...)
	header = append(header, "Total")
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range report.Rows {
		record := []string{row.UnitNumber}
		for _, bucket := range buckets {
			record = append(record, fmt.Sprintf("%.2f", row.Buckets[bucket]))
		}
		record = append(record, fmt.Sprintf("%.2f", row.Total))
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	total := 0.0
	footer := []string{"TOTAL"}
	for _, bucket := range buckets {
		footer = append(footer, fmt.Sprintf("%.2f", report.Totals[bucket]))
		total = models.Round2(total + report.Totals[bucket])
	}
	footer = append(footer, fmt.Sprintf("%.2f", total))
	if err := w.Write(footer); err != nil {
		return nil, err
	}

	w.Flush()
	return b, w.Error()
}
