package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/habitek/habitek-api/internal/models"
)

type ExportService struct {
	reportSvc *ReportService
}

func NewExportService(reportSvc *ReportService) *ExportService {
	return &ExportService{reportSvc: reportSvc}
}

// ExportCollectionXLSX renders the collection report as a spreadsheet
func (s *ExportService) ExportCollectionXLSX(ctx context.Context, buildingID uint, period string) ([]byte, string, error) {
	report, err := s.reportSvc.CollectionReport(ctx, buildingID, period)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Collection"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Collection report %s", report.Period))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Unit")
	_ = f.SetCellValue(sheet, "B3", "Amount Due")
	_ = f.SetCellValue(sheet, "C3", "Amount Paid")
	_ = f.SetCellValue(sheet, "D3", "Status")
	_ = f.SetCellStyle(sheet, "A3", "D3", headerStyle)

	row := 4
	for _, r := range report.Rows {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.UnitNumber)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.AmountDue)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.AmountPaid)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), r.Status)
		row++
	}

	row++
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "TOTAL")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), report.TotalDue)
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), report.TotalPaid)
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("%.1f%%", report.CollectionRatePercent))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("collection_%s_%s.xlsx", report.Period, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ExportAgingPDF renders the aging report as a printable PDF
func (s *ExportService) ExportAgingPDF(ctx context.Context, buildingID uint) ([]byte, string, error) {
	report, err := s.reportSvc.AgingReport(ctx, buildingID)
	if err != nil {
		return nil, "", err
	}

	buckets := []string{
		models.AgingBucketCurrent,
		models.AgingBucket1To30,
		models.AgingBucket31To60,
		models.AgingBucket61To90,
		models.AgingBucket90Plus,
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Aging report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(60, 8, fmt.Sprintf("As of %s", report.AsOf.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(28, 8, "Unit")
	for _, bucket := range buckets {
		pdf.Cell(26, 8, bucket)
	}
	pdf.Cell(26, 8, "Total")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	for _, row := range report.Rows {
		pdf.Cell(28, 7, row.UnitNumber)
		for _, bucket := range buckets {
			pdf.Cell(26, 7, fmt.Sprintf("%.2f", row.Buckets[bucket]))
		}
		pdf.Cell(26, 7, fmt.Sprintf("%.2f", row.Total))
		pdf.Ln(7)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(28, 7, "TOTAL")
	total := 0.0
	for _, bucket := range buckets {
		pdf.Cell(26, 7, fmt.Sprintf("%.2f", report.Totals[bucket]))
		total = models.Round2(total + report.Totals[bucket])
	}
	pdf.Cell(26, 7, fmt.Sprintf("%.2f", total))
	pdf.Ln(7)

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("aging_report_%s.pdf", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
