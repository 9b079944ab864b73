package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/services"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// @Summary Background Job Status
// @Description Reports the background worker pool statistics
// @Tags Jobs
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobService.GetStatus()})
}
