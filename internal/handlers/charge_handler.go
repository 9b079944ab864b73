package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

type ChargeHandler struct {
	chargeService *services.ChargeService
}

func NewChargeHandler(chargeService *services.ChargeService) *ChargeHandler {
	return &ChargeHandler{chargeService: chargeService}
}

// @Summary List Charges
// @Description Get a paginated list of unit charges
// @Tags Charges
// @Produce json
// @Param building_id query int false "Filter by building"
// @Param unit_id query int false "Filter by unit"
// @Param status query string false "Filter by status"
// @Param period query string false "Filter by period (YYYY-MM)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /charges [get]
func (h *ChargeHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "building_id", "unit_id", "status", "period")

	charges, total, err := h.chargeService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.UnitChargeResponse
	for _, ch := range charges {
		responses = append(responses, ch.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"charges":    responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Charge
// @Tags Charges
// @Produce json
// @Param charge_id path int true "Charge ID"
// @Success 200 {object} models.UnitChargeResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /charges/{charge_id} [get]
func (h *ChargeHandler) Show(c *gin.Context) {
	charge, err := h.chargeService.FindByID(c.Request.Context(), idParam(c, "charge_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charge": charge.ToResponse()})
}

// @Summary Unit Charges
// @Description Lists all charges for a unit, newest period first
// @Tags Charges
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /units/{unit_id}/charges [get]
func (h *ChargeHandler) UnitCharges(c *gin.Context) {
	charges, err := h.chargeService.FindByUnit(c.Request.Context(), idParam(c, "unit_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var responses []models.UnitChargeResponse
	for _, ch := range charges {
		responses = append(responses, ch.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"charges": responses})
}

type GenerateChargesRequest struct {
	FeePlanID uint   `json:"fee_plan_id" binding:"required"`
	Period    string `json:"period" binding:"required"`
}

// @Summary Generate Charges
// @Description Generates monthly dues for all active units under a fee plan.
// @Description Units that already have a charge for the period are skipped.
// @Tags Charges
// @Accept json
// @Produce json
// @Param request body GenerateChargesRequest true "Plan and period"
// @Success 200 {object} services.GenerateResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /charges/generate [post]
func (h *ChargeHandler) Generate(c *gin.Context) {
	var req GenerateChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fee plan and period are required"})
		return
	}

	actorID := middleware.GetUserID(c)
	result, err := h.chargeService.GenerateCharges(c.Request.Context(), req.FeePlanID, req.Period, &actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

type ManualChargeRequest struct {
	UnitID uint    `json:"unit_id" binding:"required"`
	Period string  `json:"period" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Note   *string `json:"note"`
}

// @Summary Create Manual Charge
// @Description Creates a one-off charge for a unit and period
// @Tags Charges
// @Accept json
// @Produce json
// @Param request body ManualChargeRequest true "Charge payload"
// @Success 201 {object} models.UnitChargeResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /charges [post]
func (h *ChargeHandler) Create(c *gin.Context) {
	var req ManualChargeRequest
	if err := BindNestedOrFlat(c, "charge", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UnitID == 0 || req.Period == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unit and period are required"})
		return
	}

	actorID := middleware.GetUserID(c)
	charge, err := h.chargeService.CreateManualCharge(c.Request.Context(), req.UnitID, req.Period, req.Amount, req.Note, &actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"charge": charge.ToResponse()})
}

// @Summary Cancel Charge
// @Description Cancels an unpaid charge and reverses its ledger entry
// @Tags Charges
// @Produce json
// @Param charge_id path int true "Charge ID"
// @Success 200 {object} models.UnitChargeResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /charges/{charge_id}/cancel [post]
func (h *ChargeHandler) Cancel(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	charge, err := h.chargeService.CancelCharge(c.Request.Context(), idParam(c, "charge_id"), &actorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charge": charge.ToResponse()})
}

// @Summary Refresh Overdue Statuses
// @Description Marks charges past their due date as overdue
// @Tags Charges
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /charges/refresh_overdue [post]
func (h *ChargeHandler) RefreshOverdue(c *gin.Context) {
	updated, err := h.chargeService.RefreshOverdueStatuses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
