package queue

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/store"
)

// PositionInfo is a token's place in its room's waiting line.
type PositionInfo struct {
	Position      int     `json:"position"`
	CountAhead    int     `json:"count_ahead"`
	EstimatedWait float64 `json:"estimated_wait"`
	Band          Band    `json:"band"`
}

// QueueSummary is the patient-facing "my current wait" view.
type QueueSummary struct {
	Waiting           bool    `json:"waiting"`
	TokenID           int64   `json:"token_id,omitempty"`
	TokenCode         string  `json:"token_code,omitempty"`
	ServiceName       string  `json:"service_name,omitempty"`
	RoomName          string  `json:"room_name,omitempty"`
	Position          int     `json:"position,omitempty"`
	CountAhead        int     `json:"count_ahead"`
	EstimatedWait     float64 `json:"estimated_wait"`
	EstimatedWaitText string  `json:"estimated_wait_text,omitempty"`
	Band              Band    `json:"band,omitempty"`
}

// RoomStatus is one row of the room dashboard.
type RoomStatus struct {
	RoomID        int64           `json:"room_id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	ServiceID     int64           `json:"service_id"`
	ServiceName   string          `json:"service_name"`
	State         model.RoomState `json:"state"`
	Capacity      int             `json:"capacity"`
	QueueLength   int             `json:"queue_length"`
	PriorityCount int             `json:"priority_count"`
	EstimatedWait float64         `json:"estimated_wait"`
	WaitUnavail   bool            `json:"wait_unavailable,omitempty"`
	Band          Band            `json:"band"`
}

// RoomOption is one row of the room picker for a service.
type RoomOption struct {
	RoomID        int64   `json:"room_id"`
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Capacity      int     `json:"capacity"`
	WaitingCount  int     `json:"waiting_count"`
	EstimatedWait float64 `json:"estimated_wait"`
	Band          Band    `json:"band"`
	IsCurrent     bool    `json:"is_current"`
	IsRecommended bool    `json:"is_recommended"`
}

// CurrentWaitingToken returns the patient's single waiting token, or nil.
func (e *Engine) CurrentWaitingToken(ctx context.Context, patientID int64) (*model.Token, error) {
	return e.store.CurrentWaitingToken(ctx, patientID)
}

// QueuePositionInfo reports a token's position, the number of waiting
// tokens ahead of it in the same room, and its estimated wait (the
// count-ahead variant of the room formula).
func (e *Engine) QueuePositionInfo(ctx context.Context, tokenID int64) (*PositionInfo, error) {
	token, err := e.store.GetToken(ctx, tokenID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Token does not exist")
	}
	if err != nil {
		return nil, err
	}
	return e.positionInfo(ctx, token)
}

func (e *Engine) positionInfo(ctx context.Context, token *model.Token) (*PositionInfo, error) {
	countAhead, err := e.store.CountAhead(ctx, token.RoomID, token.Position)
	if err != nil {
		return nil, err
	}

	info := &PositionInfo{
		Position:   token.Position,
		CountAhead: int(countAhead),
	}
	if wait, ok := TokenWait(int(countAhead), e.effectiveDuration(token.Service.AverageDuration), token.Room.Capacity); ok {
		info.EstimatedWait = wait
		info.Band = WaitBand(wait)
	} else {
		info.Band = BandRed
	}
	return info, nil
}

// PatientQueueSummary combines the patient's current token with its
// position info and a humanized wait string.
func (e *Engine) PatientQueueSummary(ctx context.Context, patientID int64) (*QueueSummary, error) {
	if _, err := e.store.GetPatient(ctx, patientID); err != nil {
		return nil, patientLookupError(err)
	}

	token, err := e.store.CurrentWaitingToken(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return &QueueSummary{Waiting: false}, nil
	}

	info, err := e.positionInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	return &QueueSummary{
		Waiting:           true,
		TokenID:           token.ID,
		TokenCode:         token.Code,
		ServiceName:       token.Service.Name,
		RoomName:          token.Room.Name,
		Position:          info.Position,
		CountAhead:        info.CountAhead,
		EstimatedWait:     info.EstimatedWait,
		EstimatedWaitText: HumanizeWait(info.EstimatedWait),
		Band:              info.Band,
	}, nil
}

// RoomDashboard reports queue length, estimated wait, and priority load
// for every room. Priority tokens are emergencies or priority level above
// five.
func (e *Engine) RoomDashboard(ctx context.Context) ([]RoomStatus, error) {
	rooms, err := e.store.AllRooms(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		tokens, err := e.store.WaitingTokens(ctx, room.ID)
		if err != nil {
			return nil, err
		}

		priorityCount := 0
		for _, t := range tokens {
			if t.Emergency || t.PriorityLevel > 5 {
				priorityCount++
			}
		}

		status := RoomStatus{
			RoomID:        room.ID,
			Code:          room.Code,
			Name:          room.Name,
			ServiceID:     room.ServiceID,
			ServiceName:   room.Service.Name,
			State:         room.State,
			Capacity:      room.Capacity,
			QueueLength:   len(tokens),
			PriorityCount: priorityCount,
		}
		if wait, ok := RoomWait(len(tokens), e.effectiveDuration(room.Service.AverageDuration), room.Capacity); ok {
			status.EstimatedWait = wait
			status.Band = WaitBand(wait)
		} else {
			status.WaitUnavail = true
			status.Band = BandRed
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// RoomSelection lists the open rooms for a service the way the room
// picker shows them: waiting count, wait band, and flags for the caller's
// current room and the load balancer's recommendation.
func (e *Engine) RoomSelection(ctx context.Context, serviceID, currentRoomID int64) ([]RoomOption, error) {
	service, err := e.store.GetService(ctx, serviceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Service does not exist")
	}
	if err != nil {
		return nil, err
	}

	rooms, err := e.store.OpenRoomsForService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	recommended, err := FindLeastLoadedRoom(ctx, e.store, serviceID)
	if err != nil {
		return nil, err
	}

	options := make([]RoomOption, 0, len(rooms))
	for _, room := range rooms {
		waiting, err := e.store.WaitingCount(ctx, room.ID)
		if err != nil {
			return nil, err
		}

		option := RoomOption{
			RoomID:        room.ID,
			Code:          room.Code,
			Name:          room.Name,
			Capacity:      room.Capacity,
			WaitingCount:  int(waiting),
			IsCurrent:     room.ID == currentRoomID,
			IsRecommended: recommended != nil && room.ID == recommended.ID,
		}
		if wait, ok := RoomWait(int(waiting), e.effectiveDuration(service.AverageDuration), room.Capacity); ok {
			option.EstimatedWait = wait
			option.Band = WaitBand(wait)
		} else {
			option.Band = BandRed
		}
		options = append(options, option)
	}
	return options, nil
}

// Store exposes the engine's backing store to callers that need read-only
// helpers (audit export, subscriptions).
func (e *Engine) Store() store.Store {
	return e.store
}
