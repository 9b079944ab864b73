package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/habitek/habitek-api/internal/repository"
	"github.com/habitek/habitek-api/internal/services"
)

// BindNestedOrFlat attempts to bind the request body to obj.
// It first checks if the body contains a nested object with the given key
// (e.g. {"payment": {...}}) and binds that; otherwise it binds the whole
// body. This keeps both nested and flat JSON clients working.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	// Restore body for future binding or subsequent reads
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		if val, ok := nestedMap[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}

	return json.Unmarshal(bodyBytes, obj)
}

// parseListQuery reads the common pagination and filter params
func parseListQuery(c *gin.Context, filterKeys ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")

	for _, key := range filterKeys {
		if v := c.Query(key); v != "" {
			query.Filters[key] = v
		}
	}
	return query
}

// paginationResponse is the shared pagination envelope
func paginationResponse(query *repository.ListQuery, total int64) gin.H {
	totalPages := int64(0)
	if query.PerPage > 0 {
		totalPages = (total + int64(query.PerPage) - 1) / int64(query.PerPage)
	}
	return gin.H{
		"page":        query.Page,
		"per_page":    query.PerPage,
		"total":       total,
		"total_pages": totalPages,
	}
}

// idParam parses a numeric path parameter
func idParam(c *gin.Context, name string) uint {
	id, _ := strconv.ParseUint(c.Param(name), 10, 32)
	return uint(id)
}

// respondServiceError maps service sentinel errors to HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPassword), errors.Is(err, services.ErrInvalidRecoveryCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
