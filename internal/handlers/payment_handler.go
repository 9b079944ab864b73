package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
	webhookSecret  string
}

func NewPaymentHandler(paymentService *services.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
	}
}

// @Summary List Payments
// @Description Get a paginated list of payments
// @Tags Payments
// @Produce json
// @Param building_id query int false "Filter by building"
// @Param unit_id query int false "Filter by unit"
// @Param status query string false "Filter by status"
// @Param method query string false "Filter by method"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "building_id", "unit_id", "status", "method")

	payments, total, err := h.paymentService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.PaymentResponse
	for _, p := range payments {
		responses = append(responses, p.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payments":   responses,
		"pagination": paginationResponse(query, total),
	})
}

// @Summary Get Payment
// @Description Get a payment with its charge allocations
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} models.PaymentResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [get]
func (h *PaymentHandler) Show(c *gin.Context) {
	payment, err := h.paymentService.FindByID(c.Request.Context(), idParam(c, "payment_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Record Manual Payment
// @Description Records a cash or transfer payment and allocates it oldest period first
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body services.ManualPaymentInput true "Payment payload"
// @Success 201 {object} models.PaymentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var input services.ManualPaymentInput
	if err := BindNestedOrFlat(c, "payment", &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.UnitID == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unit is required"})
		return
	}

	payment, err := h.paymentService.RecordManualPayment(c.Request.Context(), &input, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment.ToResponse()})
}

type ChargeCardRequest struct {
	UnitID    uint    `json:"unit_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	CardToken string  `json:"card_token" binding:"required"`
}

// @Summary Charge Card
// @Description Initiates a card payment through the payment provider.
// @Description The payment settles asynchronously via the provider webhook.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body ChargeCardRequest true "Card payload"
// @Success 202 {object} models.PaymentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/charge_card [post]
func (h *PaymentHandler) ChargeCard(c *gin.Context) {
	var req ChargeCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unit, amount and card token are required"})
		return
	}

	payment, err := h.paymentService.ChargeCard(c.Request.Context(), req.UnitID, req.Amount, req.CardToken, middleware.GetUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"payment": payment.ToResponse()})
}

type UpdatePaymentRequest struct {
	Amount      float64    `json:"amount" binding:"required"`
	PaymentDate *time.Time `json:"payment_date"`
	Description *string    `json:"description"`
}

type AllocatePaymentRequest struct {
	TargetChargeID *uint `json:"target_charge_id"`
}

// @Summary Allocate Advance Credit
// @Description Applies a settled payment's unallocated remainder to the unit's
// @Description outstanding charges, oldest period first, or to one target charge
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param request body AllocatePaymentRequest false "Optional target charge"
// @Success 200 {object} models.PaymentResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/allocate [post]
func (h *PaymentHandler) Allocate(c *gin.Context) {
	var req AllocatePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := BindNestedOrFlat(c, "payment", &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	payment, err := h.paymentService.AllocateAdvanceCredit(c.Request.Context(), idParam(c, "payment_id"), req.TargetChargeID, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Update Manual Payment
// @Description Corrects a manual payment; allocations are reversed and reapplied
// @Tags Payments
// @Accept json
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param request body UpdatePaymentRequest true "Fields to change"
// @Success 200 {object} models.PaymentResponse
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Amount must be greater than zero"})
		return
	}

	payment, err := h.paymentService.UpdateManualPayment(c.Request.Context(), idParam(c, "payment_id"), req.Amount, req.PaymentDate, req.Description, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Delete Manual Payment
// @Description Removes a manual payment and reverses its allocations
// @Tags Payments
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Success 200 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id} [delete]
func (h *PaymentHandler) Destroy(c *gin.Context) {
	if err := h.paymentService.DeleteManualPayment(c.Request.Context(), idParam(c, "payment_id"), middleware.GetUserID(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted"})
}

// @Summary Upload Receipt
// @Description Attaches a receipt document to a payment
// @Tags Payments
// @Accept multipart/form-data
// @Produce json
// @Param payment_id path int true "Payment ID"
// @Param file formData file true "Receipt file"
// @Success 200 {object} models.PaymentResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/receipt [post]
func (h *PaymentHandler) UploadReceipt(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	payment, err := h.paymentService.UploadReceipt(c.Request.Context(), idParam(c, "payment_id"), file, header)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment.ToResponse()})
}

// @Summary Download Receipt
// @Description Streams the receipt document attached to a payment
// @Tags Payments
// @Produce octet-stream
// @Param payment_id path int true "Payment ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payments/{payment_id}/receipt [get]
func (h *PaymentHandler) DownloadReceipt(c *gin.Context) {
	path, err := h.paymentService.ReceiptFullPath(c.Request.Context(), idParam(c, "payment_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.File(path)
}

type webhookPayload struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// @Summary Payment Provider Webhook
// @Description Receives asynchronous payment status events from the provider.
// @Description The request must carry an HMAC-SHA256 signature of the raw body.
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Webhook-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /webhooks/payments [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	event := &services.WebhookEvent{
		Reference:  payload.Reference,
		Status:     payload.Status,
		RawPayload: body,
	}
	if err := h.paymentService.HandleProviderWebhook(c.Request.Context(), event); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *PaymentHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
