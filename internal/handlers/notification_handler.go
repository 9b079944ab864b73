package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/middleware"
	"github.com/habitek/habitek-api/internal/models"
	"github.com/habitek/habitek-api/internal/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// @Summary My Notifications
// @Description Lists the current user's notifications, newest first
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param notification_type query string false "Filter by type"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) Index(c *gin.Context) {
	query := parseListQuery(c, "unread", "notification_type")
	userID := middleware.GetUserID(c)

	notifications, total, err := h.service.FindByUser(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unread, err := h.service.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []models.NotificationResponse
	for _, n := range notifications {
		responses = append(responses, n.ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": responses,
		"unread_count":  unread,
		"pagination":    paginationResponse(query, total),
	})
}

// @Summary Mark Notification Read
// @Tags Notifications
// @Produce json
// @Param notification_id path int true "Notification ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/{notification_id}/read [post]
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.service.MarkAsRead(c.Request.Context(), idParam(c, "notification_id"), middleware.GetUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// @Summary Mark All Notifications Read
// @Tags Notifications
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/read_all [post]
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
