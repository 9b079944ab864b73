package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

type AuditHandler struct {
	service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// @Summary List Audit Logs
// @Description Get a paginated trail of data changes
// @Tags Audit
// @Produce json
// @Param user_id query int false "Filter by actor"
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query int false "Filter by entity ID"
// @Param action query string false "Filter by action"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit_logs [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "user_id", "entity_type", "entity_id", "action")

	logs, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.AuditLogResponse
	for _, l := range logs {
		responses = append(responses, l.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": responses,
		"pagination": paginationResponse(query, total),
	})
}
