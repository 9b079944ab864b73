package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/services"
)

type ReportHandler struct {
	reportService *services.ReportService
	exportService *services.ExportService
}

func NewReportHandler(reportService *services.ReportService, exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
	}
}

// @Summary Collection Report
// @Description Per-unit dues and payments for a period with the collection rate
// @Tags Reports
// @Produce json
// @Param building_id path int true "Building ID"
// @Param period query string true "Period (YYYY-MM)"
// @Success 200 {object} services.CollectionReport
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/collection [get]
func (h *ReportHandler) Collection(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Period is required"})
		return
	}

	report, err := h.reportService.CollectionReport(c.Request.Context(), idParam(c, "building_id"), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// @Summary Collection Report CSV
// @Tags Reports
// @Produce text/csv
// @Param building_id path int true "Building ID"
// @Param period query string true "Period (YYYY-MM)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/collection.csv [get]
func (h *ReportHandler) CollectionCSV(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Period is required"})
		return
	}

	buf, err := h.reportService.GenerateCollectionCSV(c.Request.Context(), idParam(c, "building_id"), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("collection_%s.csv", period)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Collection Report XLSX
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param building_id path int true "Building ID"
// @Param period query string true "Period (YYYY-MM)"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/collection.xlsx [get]
func (h *ReportHandler) CollectionXLSX(c *gin.Context) {
	period := c.Query("period")
	if period == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Period is required"})
		return
	}

	data, filename, err := h.exportService.ExportCollectionXLSX(c.Request.Context(), idParam(c, "building_id"), period)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// @Summary Aging Report
// @Description Outstanding balances per unit bucketed by days overdue
// @Tags Reports
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} services.AgingReport
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/aging [get]
func (h *ReportHandler) Aging(c *gin.Context) {
	report, err := h.reportService.AgingReport(c.Request.Context(), idParam(c, "building_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// @Summary Aging Report CSV
// @Tags Reports
// @Produce text/csv
// @Param building_id path int true "Building ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/aging.csv [get]
func (h *ReportHandler) AgingCSV(c *gin.Context) {
	buf, err := h.reportService.GenerateAgingCSV(c.Request.Context(), idParam(c, "building_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=aging_report.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// @Summary Aging Report PDF
// @Tags Reports
// @Produce application/pdf
// @Param building_id path int true "Building ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /buildings/{building_id}/reports/aging.pdf [get]
func (h *ReportHandler) AgingPDF(c *gin.Context) {
	data, filename, err := h.exportService.ExportAgingPDF(c.Request.Context(), idParam(c, "building_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
