package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type coordinateServiceRequest struct {
	TargetServiceID int64 `json:"target_service_id" binding:"required"`
}

type coordinateRoomRequest struct {
	TargetRoomID int64 `json:"target_room_id" binding:"required"`
}

type coordinateServiceRoomRequest struct {
	TargetServiceID int64 `json:"target_service_id" binding:"required"`
	TargetRoomID    int64 `json:"target_room_id" binding:"required"`
}

// coordinationResponse is the reload signal returned on success, carrying
// enough of the outcome for the UI to highlight the new token.
type coordinationResponse struct {
	Reload       bool   `json:"reload"`
	NewTokenCode string `json:"new_token_code"`
	NewPosition  int    `json:"new_position"`
	LogCode      string `json:"log_code"`
}

// CoordinateToService handles POST /api/patients/:patient_id/coordinate/service.
func (h *Handler) CoordinateToService(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		return
	}

	var req coordinateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.CoordinateToService(c.Request.Context(), actor(c), patientID, req.TargetServiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coordinationResponse{
		Reload:       true,
		NewTokenCode: result.NewToken.Code,
		NewPosition:  result.NewToken.Position,
		LogCode:      result.Log.Code,
	})
}

// CoordinateToRoom handles POST /api/patients/:patient_id/coordinate/room.
func (h *Handler) CoordinateToRoom(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		return
	}

	var req coordinateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.CoordinateToRoom(c.Request.Context(), actor(c), patientID, req.TargetRoomID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coordinationResponse{
		Reload:       true,
		NewTokenCode: result.NewToken.Code,
		NewPosition:  result.NewToken.Position,
		LogCode:      result.Log.Code,
	})
}

// CoordinateServiceRoom handles POST /api/patients/:patient_id/coordinate/service-room.
func (h *Handler) CoordinateServiceRoom(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		return
	}

	var req coordinateServiceRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.CoordinateServiceRoom(c.Request.Context(), actor(c), patientID, req.TargetServiceID, req.TargetRoomID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coordinationResponse{
		Reload:       true,
		NewTokenCode: result.NewToken.Code,
		NewPosition:  result.NewToken.Position,
		LogCode:      result.Log.Code,
	})
}
