package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-queue-backend/internal/store"
)

// GetCoordinationLogs handles GET /api/coordination-logs — the audit
// export, newest-first, filterable by patient_id, room_id, from, to
// (RFC3339), and limit.
func (h *Handler) GetCoordinationLogs(c *gin.Context) {
	var filter store.LogFilter

	filter.PatientID, _ = strconv.ParseInt(c.Query("patient_id"), 10, 64)
	filter.RoomID, _ = strconv.ParseInt(c.Query("room_id"), 10, 64)
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' timestamp format. Use RFC3339."})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' timestamp format. Use RFC3339."})
			return
		}
		filter.To = t
	}

	entries, err := h.store.Logs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
