package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinic-queue-backend/internal/notification"
	"clinic-queue-backend/internal/queue"
	"clinic-queue-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine  *queue.Engine
	store   store.Store
	alerts  *notification.WorkerPool
	webpush *webpush.Options
	log     zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(engine *queue.Engine, s store.Store, alerts *notification.WorkerPool, webpushOptions *webpush.Options, log zerolog.Logger) *Handler {
	return &Handler{
		engine:  engine,
		store:   s,
		alerts:  alerts,
		webpush: webpushOptions,
		log:     log.With().Str("component", "api").Logger(),
	}
}

// actor builds the request-scoped identity from headers. The UI layer is
// trusted to set them; a missing user falls back to zero (system).
func actor(c *gin.Context) queue.Actor {
	userID, _ := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	companyID, _ := strconv.ParseInt(c.GetHeader("X-Company-ID"), 10, 64)
	return queue.Actor{
		UserID:    userID,
		CompanyID: companyID,
		Locale:    c.GetHeader("Accept-Language"),
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondError maps engine failures onto the wire: validation errors
// become non-fatal structured notifications, anything else a generic
// sticky system notification with the cause logged server-side only.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *queue.Error
	if errors.As(err, &verr) {
		h.log.Debug().Str("kind", string(verr.Kind)).Str("path", c.FullPath()).Msg("coordination rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"notification": verr.Notification()})
		return
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("coordination request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"notification": queue.SystemNotification()})
}
