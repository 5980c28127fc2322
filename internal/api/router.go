package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"clinic-queue-backend/internal/mw"
	"clinic-queue-backend/internal/notification"
	"clinic-queue-backend/internal/queue"
	"clinic-queue-backend/internal/store"
)

// RouterOptions carries the tunables the router needs from config.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(engine *queue.Engine, s store.Store, alerts *notification.WorkerPool, webpushOptions *webpush.Options, log zerolog.Logger, opts RouterOptions) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(engine, s, alerts, webpushOptions, log)

	rateLimiter := mw.RateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst)

	// Dashboard reads tolerate a few seconds of staleness; coordination
	// triggers never pass through the cache.
	cacheStore := cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	caching := mw.Cache(cacheStore, opts.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/patients/:patient_id/queue", handler.GetPatientQueue)
		api.GET("/patients/:patient_id/coordination-services", handler.GetCoordinationServices)
		api.POST("/patients/:patient_id/coordinate/service", handler.CoordinateToService)
		api.POST("/patients/:patient_id/coordinate/room", handler.CoordinateToRoom)
		api.POST("/patients/:patient_id/coordinate/service-room", handler.CoordinateServiceRoom)

		api.GET("/rooms", caching, handler.GetRooms)
		api.GET("/rooms/:room_id/queue", handler.GetRoomQueue)
		api.POST("/rooms/:room_id/state", handler.SetRoomState)
		api.GET("/services/:service_id/rooms", handler.GetServiceRooms)

		api.GET("/coordination-logs", handler.GetCoordinationLogs)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
