package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/notification"
)

// GetRooms handles GET /api/rooms — the room dashboard.
func (h *Handler) GetRooms(c *gin.Context) {
	statuses, err := h.engine.RoomDashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

type roomQueueEntry struct {
	TokenCode     string `json:"token_code"`
	PatientName   string `json:"patient_name"`
	ServiceName   string `json:"service_name"`
	Position      int    `json:"position"`
	PriorityLevel int    `json:"priority_level"`
	Emergency     bool   `json:"emergency"`
}

// GetRoomQueue handles GET /api/rooms/:room_id/queue — the room's waiting
// line in service order.
func (h *Handler) GetRoomQueue(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	if _, err := h.store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	tokens, err := h.store.WaitingTokens(c.Request.Context(), roomID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries := make([]roomQueueEntry, 0, len(tokens))
	for _, t := range tokens {
		entries = append(entries, roomQueueEntry{
			TokenCode:     t.Code,
			PatientName:   t.Patient.Name,
			ServiceName:   t.Service.Name,
			Position:      t.Position,
			PriorityLevel: t.PriorityLevel,
			Emergency:     t.Emergency,
		})
	}
	c.JSON(http.StatusOK, entries)
}

// GetServiceRooms handles GET /api/services/:service_id/rooms — the room
// picker listing; ?current_room_id= marks the caller's current room.
func (h *Handler) GetServiceRooms(c *gin.Context) {
	serviceID, ok := pathID(c, "service_id")
	if !ok {
		return
	}
	currentRoomID, _ := strconv.ParseInt(c.Query("current_room_id"), 10, 64)

	options, err := h.engine.RoomSelection(c.Request.Context(), serviceID, currentRoomID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, options)
}

type roomStateRequest struct {
	State model.RoomState `json:"state" binding:"required"`
}

// SetRoomState handles POST /api/rooms/:room_id/state. Closing a room or
// sending it to maintenance dispatches push alerts so staff reassign the
// waiting patients.
func (h *Handler) SetRoomState(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	var req roomStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.State.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state must be open, closed, or maintenance"})
		return
	}

	room, err := h.store.SetRoomState(c.Request.Context(), roomID, req.State)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		h.respondError(c, err)
		return
	}

	h.log.Info().
		Int64("user_id", actor(c).UserID).
		Int64("room_id", room.ID).
		Str("state", string(room.State)).
		Msg("room state changed")

	if h.alerts != nil && room.State != model.RoomOpen {
		h.alerts.Dispatch(notification.RoomAlert{RoomID: room.ID, State: room.State})
	}

	c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "state": room.State})
}
