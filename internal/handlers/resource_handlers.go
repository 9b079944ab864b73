package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

// BuildingHandler serves buildings and their units
type BuildingHandler struct {
	service *services.BuildingService
}

func NewBuildingHandler(service *services.BuildingService) *BuildingHandler {
	return &BuildingHandler{service: service}
}

// @Summary List Buildings
// @Tags Buildings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings [get]
func (h *BuildingHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "is_active")

	buildings, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.BuildingResponse
	for _, b := range buildings {
		responses = append(responses, b.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"buildings":  responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Building
// @Tags Buildings
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} models.BuildingResponse
// @Security BearerAuth
// @Router /buildings/{building_id} [get]
func (h *BuildingHandler) Show(c *gin.Context) {
	building, err := h.service.FindByID(c.Request.Context(), idParam(c, "building_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"building": building.ToResponse()})
}

// @Summary Create Building
// @Tags Buildings
// @Accept json
// @Produce json
// @Param request body services.CreateBuildingInput true "Building payload"
// @Success 201 {object} models.BuildingResponse
// @Security BearerAuth
// @Router /buildings [post]
func (h *BuildingHandler) Create(c *gin.Context) {
	var input services.CreateBuildingInput
	if err := BindNestedOrFlat(c, "building", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Name == "" || input.Address == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Name and address are required"})
		return
	}

	actorID := middleware.GetUserID(c)
	building, err := h.service.Create(c.Request.Context(), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"building": building.ToResponse()})
}

// @Summary Update Building
// @Tags Buildings
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body services.CreateBuildingInput true "Building payload"
// @Success 200 {object} models.BuildingResponse
// @Security BearerAuth
// @Router /buildings/{building_id} [put]
func (h *BuildingHandler) Update(c *gin.Context) {
	var input services.CreateBuildingInput
	if err := BindNestedOrFlat(c, "building", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID := middleware.GetUserID(c)
	building, err := h.service.Update(c.Request.Context(), idParam(c, "building_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"building": building.ToResponse()})
}

// @Summary Deactivate Building
// @Tags Buildings
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /buildings/{building_id} [delete]
func (h *BuildingHandler) Destroy(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	if err := h.service.Deactivate(c.Request.Context(), idParam(c, "building_id"), &actorID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Building deactivated"})
}

// @Summary List Units
// @Tags Units
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/units [get]
func (h *BuildingHandler) Units(c *gin.Context) {
	query := parseListQuery(c, "is_active", "owner_user_id")

	units, total, err := h.service.ListUnits(c.Request.Context(), idParam(c, "building_id"), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.UnitResponse
	for _, u := range units {
		responses = append(responses, u.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"units":      responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Unit
// @Tags Units
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 200 {object} models.UnitResponse
// @Security BearerAuth
// @Router /units/{unit_id} [get]
func (h *BuildingHandler) ShowUnit(c *gin.Context) {
	unit, err := h.service.FindUnit(c.Request.Context(), idParam(c, "unit_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unit": unit.ToResponse()})
}

// @Summary Create Unit
// @Tags Units
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body services.CreateUnitInput true "Unit payload"
// @Success 201 {object} models.UnitResponse
// @Security BearerAuth
// @Router /buildings/{building_id}/units [post]
func (h *BuildingHandler) CreateUnit(c *gin.Context) {
	var input services.CreateUnitInput
	if err := BindNestedOrFlat(c, "unit", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.Number == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unit number is required"})
		return
	}

	actorID := middleware.GetUserID(c)
	unit, err := h.service.CreateUnit(c.Request.Context(), idParam(c, "building_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"unit": unit.ToResponse()})
}

// @Summary Update Unit
// @Tags Units
// @Accept json
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Param request body services.CreateUnitInput true "Unit payload"
// @Success 200 {object} models.UnitResponse
// @Security BearerAuth
// @Router /units/{unit_id} [put]
func (h *BuildingHandler) UpdateUnit(c *gin.Context) {
	var input services.CreateUnitInput
	if err := BindNestedOrFlat(c, "unit", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID := middleware.GetUserID(c)
	unit, err := h.service.UpdateUnit(c.Request.Context(), idParam(c, "unit_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unit": unit.ToResponse()})
}

// @Summary Deactivate Unit
// @Tags Units
// @Produce json
// @Param unit_id path int true "Unit ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /units/{unit_id} [delete]
func (h *BuildingHandler) DestroyUnit(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	if err := h.service.DeactivateUnit(c.Request.Context(), idParam(c, "unit_id"), &actorID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unit deactivated"})
}

// FeePlanHandler serves fee plans
type FeePlanHandler struct {
	service *services.FeePlanService
}

func NewFeePlanHandler(service *services.FeePlanService) *FeePlanHandler {
	return &FeePlanHandler{service: service}
}

// @Summary List Fee Plans
// @Tags FeePlans
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/fee_plans [get]
func (h *FeePlanHandler) Index(c *gin.Context) {
	plans, err := h.service.FindByBuilding(c.Request.Context(), idParam(c, "building_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.FeePlanResponse
	for _, p := range plans {
		responses = append(responses, p.ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"fee_plans": responses})
}

// @Summary Create Fee Plan
// @Tags FeePlans
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body services.FeePlanInput true "Fee plan payload"
// @Success 201 {object} models.FeePlanResponse
// @Security BearerAuth
// @Router /buildings/{building_id}/fee_plans [post]
func (h *FeePlanHandler) Create(c *gin.Context) {
	var input services.FeePlanInput
	if err := BindNestedOrFlat(c, "fee_plan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID := middleware.GetUserID(c)
	plan, err := h.service.Create(c.Request.Context(), idParam(c, "building_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fee_plan": plan.ToResponse()})
}

// @Summary Update Fee Plan
// @Tags FeePlans
// @Accept json
// @Produce json
// @Param fee_plan_id path int true "Fee plan ID"
// @Param request body services.FeePlanInput true "Fee plan payload"
// @Success 200 {object} models.FeePlanResponse
// @Security BearerAuth
// @Router /fee_plans/{fee_plan_id} [put]
func (h *FeePlanHandler) Update(c *gin.Context) {
	var input services.FeePlanInput
	if err := BindNestedOrFlat(c, "fee_plan", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	actorID := middleware.GetUserID(c)
	plan, err := h.service.Update(c.Request.Context(), idParam(c, "fee_plan_id"), &input, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_plan": plan.ToResponse()})
}

// @Summary Delete Fee Plan
// @Description Deletes an unused plan; plans with charge history are deactivated
// @Tags FeePlans
// @Produce json
// @Param fee_plan_id path int true "Fee plan ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /fee_plans/{fee_plan_id} [delete]
func (h *FeePlanHandler) Destroy(c *gin.Context) {
	actorID := middleware.GetUserID(c)
	if err := h.service.Delete(c.Request.Context(), idParam(c, "fee_plan_id"), &actorID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Fee plan removed"})
}

// LedgerHandler serves the building ledger read side
type LedgerHandler struct {
	service *services.LedgerService
}

func NewLedgerHandler(service *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// @Summary Building Ledger
// @Tags Ledger
// @Produce json
// @Param building_id path int true "Building ID"
// @Param entry_type query string false "Filter by entry type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/ledger [get]
func (h *LedgerHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "entry_type", "unit_id", "from", "to")
	buildingID := idParam(c, "building_id")

	entries, total, err := h.service.FindByBuilding(c.Request.Context(), buildingID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	balance, err := h.service.CurrentBalance(c.Request.Context(), buildingID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.LedgerEntryResponse
	for _, e := range entries {
		responses = append(responses, e.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":    responses,
		"balance":    balance,
		"pagination": paginationResponse(query, total),
	})
}

// ExpenseHandler serves vendor expenses
type ExpenseHandler struct {
	service *services.ExpenseService
}

func NewExpenseHandler(service *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// @Summary List Expenses
// @Tags Expenses
// @Produce json
// @Param building_id path int true "Building ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /buildings/{building_id}/expenses [get]
func (h *ExpenseHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "category", "from", "to")

	expenses, total, err := h.service.List(c.Request.Context(), idParam(c, "building_id"), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, e.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses":   responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Record Expense
// @Description Records a vendor expense and debits the building ledger
// @Tags Expenses
// @Accept json
// @Produce json
// @Param building_id path int true "Building ID"
// @Param request body services.ExpenseInput true "Expense payload"
// @Success 201 {object} models.ExpenseResponse
// @Security BearerAuth
// @Router /buildings/{building_id}/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var input services.ExpenseInput
	if err := BindNestedOrFlat(c, "expense", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	expense, err := h.service.Create(c.Request.Context(), idParam(c, "building_id"), &input, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense.ToResponse()})
}

// ServiceRequestHandler serves resident maintenance requests
type ServiceRequestHandler struct {
	service *services.ServiceRequestService
}

func NewServiceRequestHandler(service *services.ServiceRequestService) *ServiceRequestHandler {
	return &ServiceRequestHandler{service: service}
}

// @Summary List Service Requests
// @Tags ServiceRequests
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /service_requests [get]
func (h *ServiceRequestHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "building_id", "unit_id", "status", "priority")

	// Residents only see what they reported
	if !middleware.IsStaff(c) {
		query.Filters["requested_by_user_id"] = strconv.FormatUint(uint64(middleware.GetUserID(c)), 10)
	}

	requests, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.ServiceRequestResponse
	for _, r := range requests {
		responses = append(responses, r.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"service_requests": responses,
		"pagination":       paginationResponse(query, total),
	})
}

// @Summary Get Service Request
// @Tags ServiceRequests
// @Produce json
// @Param request_id path int true "Request ID"
// @Success 200 {object} models.ServiceRequestResponse
// @Security BearerAuth
// @Router /service_requests/{request_id} [get]
func (h *ServiceRequestHandler) Show(c *gin.Context) {
	request, err := h.service.FindByID(c.Request.Context(), idParam(c, "request_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !middleware.IsStaff(c) && request.RequestedByUserID != middleware.GetUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this information"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"service_request": request.ToResponse()})
}

// @Summary Create Service Request
// @Tags ServiceRequests
// @Accept json
// @Produce json
// @Param request body services.ServiceRequestInput true "Request payload"
// @Success 201 {object} models.ServiceRequestResponse
// @Security BearerAuth
// @Router /service_requests [post]
func (h *ServiceRequestHandler) Create(c *gin.Context) {
	var input services.ServiceRequestInput
	if err := BindNestedOrFlat(c, "service_request", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.UnitID == 0 || input.Title == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unit and title are required"})
		return
	}

	request, err := h.service.Create(c.Request.Context(), &input, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service_request": request.ToResponse()})
}

type UpdateRequestStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// @Summary Update Service Request Status
// @Tags ServiceRequests
// @Accept json
// @Produce json
// @Param request_id path int true "Request ID"
// @Param request body UpdateRequestStatusRequest true "New status"
// @Success 200 {object} models.ServiceRequestResponse
// @Security BearerAuth
// @Router /service_requests/{request_id}/status [put]
func (h *ServiceRequestHandler) UpdateStatus(c *gin.Context) {
	var req UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	actorID := middleware.GetUserID(c)
	request, err := h.service.UpdateStatus(c.Request.Context(), idParam(c, "request_id"), req.Status, &actorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"service_request": request.ToResponse()})
}

// WorkOrderHandler serves vendor work orders
type WorkOrderHandler struct {
	service *services.WorkOrderService
}

func NewWorkOrderHandler(service *services.WorkOrderService) *WorkOrderHandler {
	return &WorkOrderHandler{service: service}
}

// @Summary List Work Orders
// @Tags WorkOrders
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /work_orders [get]
func (h *WorkOrderHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "building_id", "status")

	orders, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.WorkOrderResponse
	for _, o := range orders {
		responses = append(responses, o.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"work_orders": responses,
		"pagination":  paginationResponse(query, total),
	})
}

// @Summary Get Work Order
// @Tags WorkOrders
// @Produce json
// @Param work_order_id path int true "Work order ID"
// @Success 200 {object} models.WorkOrderResponse
// @Security BearerAuth
// @Router /work_orders/{work_order_id} [get]
func (h *WorkOrderHandler) Show(c *gin.Context) {
	order, err := h.service.FindByID(c.Request.Context(), idParam(c, "work_order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"work_order": order.ToResponse()})
}

// @Summary Create Work Order
// @Tags WorkOrders
// @Accept json
// @Produce json
// @Param request body services.WorkOrderInput true "Work order payload"
// @Success 201 {object} models.WorkOrderResponse
// @Security BearerAuth
// @Router /work_orders [post]
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var input services.WorkOrderInput
	if err := BindNestedOrFlat(c, "work_order", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.VendorName == "" || input.Title == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Vendor and title are required"})
		return
	}

	order, err := h.service.Create(c.Request.Context(), &input, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"work_order": order.ToResponse()})
}

type WorkOrderTransitionRequest struct {
	Event string   `json:"event" binding:"required"`
	Cost  *float64 `json:"cost"`
}

// @Summary Transition Work Order
// @Description Applies a lifecycle event: assign, start, complete or close.
// @Description Closing with a cost records the vendor invoice as an expense.
// @Tags WorkOrders
// @Accept json
// @Produce json
// @Param work_order_id path int true "Work order ID"
// @Param request body WorkOrderTransitionRequest true "Event"
// @Success 200 {object} models.WorkOrderResponse
// @Security BearerAuth
// @Router /work_orders/{work_order_id}/transition [post]
func (h *WorkOrderHandler) Transition(c *gin.Context) {
	var req WorkOrderTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event is required"})
		return
	}

	actorID := middleware.GetUserID(c)
	id := idParam(c, "work_order_id")

	var order *models.WorkOrder
	var err error
	if req.Event == "close" && req.Cost != nil {
		order, err = h.service.CloseWithCost(c.Request.Context(), id, *req.Cost, actorID, c.ClientIP())
	} else {
		order, err = h.service.Transition(c.Request.Context(), id, req.Event, actorID, c.ClientIP())
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"work_order": order.ToResponse()})
}
