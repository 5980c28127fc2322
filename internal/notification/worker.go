package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clinic-queue-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is the real Sender backed by the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// RoomAlert asks the pool to notify subscribers of one room about a state
// change (typically closed or maintenance, so staff reassign waiting
// patients).
type RoomAlert struct {
	RoomID int64
	State  model.RoomState
}

// WorkerPool manages a pool of workers delivering room alerts.
type WorkerPool struct {
	size    int
	jobs    chan RoomAlert
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
	log     zerolog.Logger
}

// NewWorkerPool creates a new alert worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan RoomAlert, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.With().Str("component", "room-alerts").Logger(),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case alert := <-wp.jobs:
			wp.sendAlertsForRoom(ctx, alert)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues a room alert for delivery.
func (wp *WorkerPool) Dispatch(alert RoomAlert) {
	wp.jobs <- alert
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan RoomAlert {
	return wp.jobs
}

// sendAlertsForRoom fetches the room's subscribers and pushes the alert.
func (wp *WorkerPool) sendAlertsForRoom(ctx context.Context, alert RoomAlert) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_room_mapping srm ON srm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("srm.room_id = ?", alert.RoomID).
		Find(&subscriptions).Error
	if err != nil {
		wp.log.Error().Err(err).Int64("room_id", alert.RoomID).Msg("failed to fetch subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	var room model.Room
	roomLabel := fmt.Sprintf("%d", alert.RoomID)
	if err := wp.db.WithContext(ctx).
		Select("name").
		First(&room, alert.RoomID).Error; err != nil {
		wp.log.Error().Err(err).Int64("room_id", alert.RoomID).Msg("failed to fetch room")
	} else if room.Name != "" {
		roomLabel = room.Name
	}

	var message string
	switch alert.State {
	case model.RoomClosed:
		message = fmt.Sprintf("Room %s has been closed. Please reassign waiting patients.", roomLabel)
	case model.RoomMaintenance:
		message = fmt.Sprintf("Room %s is under maintenance. Please reassign waiting patients.", roomLabel)
	default:
		message = fmt.Sprintf("Room %s is open again.", roomLabel)
	}

	wp.log.Info().Int64("room_id", alert.RoomID).Int("subscribers", len(subscriptions)).Msg("sending room alerts")
	for _, sub := range subscriptions {
		wp.sendAlert(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendAlert(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to send alert")
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are dropped.
	if resp.StatusCode == http.StatusGone {
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("failed to delete expired subscription")
		}
	}
}
