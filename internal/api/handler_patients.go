package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPatientQueue handles GET /api/patients/:patient_id/queue — the
// patient's current wait summary.
func (h *Handler) GetPatientQueue(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		return
	}

	summary, err := h.engine.PatientQueueSummary(c.Request.Context(), patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetCoordinationServices handles GET /api/patients/:patient_id/coordination-services.
func (h *Handler) GetCoordinationServices(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		return
	}

	options, err := h.engine.AvailableCoordinationServices(c.Request.Context(), patientID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}
