package handlers

import (
	"net/http"
	"strconv"

	"github.com/familyhub/family-access-backend/internal/api/middleware"
	"github.com/familyhub/family-access-backend/internal/models"
	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ============================================
// Access Log Handler
// ============================================

type AccessLogHandler struct {
	accessLogService service.AccessLogService
}

// List returns the audit trail newest first, paged by limit/offset query
// params.
func (h *AccessLogHandler) List(c *gin.Context) {
	identity, ok := middleware.RequireIdentity(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	entries, total, err := h.accessLogService.List(c.Request.Context(), identity.HouseholdID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list access logs"})
		return
	}

	response := models.AccessLogListResponse{
		Entries: make([]models.AccessLogResponse, len(entries)),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}
	for i, e := range entries {
		response.Entries[i] = toAccessLogResponse(e)
	}

	c.JSON(http.StatusOK, response)
}
