package queue

import (
	"context"
	"fmt"

	"clinic-queue-backend/internal/model"
)

// ServiceOption describes one service the patient can be coordinated to,
// annotated with the recommendation the room picker shows.
type ServiceOption struct {
	ServiceID         int64   `json:"service_id"`
	ServiceCode       string  `json:"service_code"`
	ServiceName       string  `json:"service_name"`
	RoomCount         int     `json:"room_count"`
	RecommendedRoomID int64   `json:"recommended_room_id"`
	RecommendedRoom   string  `json:"recommended_room"`
	QueueLength       int     `json:"queue_length"`
	EstimatedWait     float64 `json:"estimated_wait"`
	// WaitUnavailable marks rooms with no usable capacity, where the
	// estimate is undefined rather than zero.
	WaitUnavailable bool `json:"wait_unavailable,omitempty"`
	Band            Band `json:"band"`
}

func servicesCacheKey(patientID int64) string {
	return fmt.Sprintf("coordination-services:%d", patientID)
}

// InvalidateServices drops the cached available-services view for a
// patient. Called after every coordination so the next read recomputes.
func (e *Engine) InvalidateServices(patientID int64) {
	if e.cache != nil {
		e.cache.Delete(servicesCacheKey(patientID))
	}
}

// AvailableCoordinationServices lists the services the patient can still
// be coordinated to: package services minus completed ones minus the
// current one, keeping only services with at least one open room. The
// result is cached per patient until the next coordination (or TTL).
//
// A patient with no waiting token, or no package, has nothing to
// coordinate from and gets an empty list.
func (e *Engine) AvailableCoordinationServices(ctx context.Context, patientID int64) ([]ServiceOption, error) {
	if e.cache != nil {
		if cached, found := e.cache.Get(servicesCacheKey(patientID)); found {
			return cached.([]ServiceOption), nil
		}
	}

	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, patientLookupError(err)
	}

	current, err := e.store.CurrentWaitingToken(ctx, patientID)
	if err != nil {
		return nil, err
	}

	options := []ServiceOption{}
	if current != nil && patient.Package != nil {
		completed := make(map[int64]bool, len(patient.CompletedServices))
		for _, svc := range patient.CompletedServices {
			completed[svc.ID] = true
		}

		for _, svc := range patient.Package.Services {
			if completed[svc.ID] || svc.ID == current.ServiceID {
				continue
			}
			option, ok, err := e.serviceOption(ctx, svc)
			if err != nil {
				return nil, err
			}
			if ok {
				options = append(options, option)
			}
		}
	}

	if e.cache != nil {
		e.cache.Set(servicesCacheKey(patientID), options, e.servicesTTL)
	}
	return options, nil
}

// serviceOption builds the coordination metadata for one service. ok is
// false when the service is unreachable (no open room).
func (e *Engine) serviceOption(ctx context.Context, svc model.Service) (ServiceOption, bool, error) {
	rooms, err := e.store.OpenRoomsForService(ctx, svc.ID)
	if err != nil {
		return ServiceOption{}, false, err
	}
	if len(rooms) == 0 {
		return ServiceOption{}, false, nil
	}

	recommended, err := FindLeastLoadedRoom(ctx, e.store, svc.ID)
	if err != nil {
		return ServiceOption{}, false, err
	}

	queueLength, err := e.store.WaitingCount(ctx, recommended.ID)
	if err != nil {
		return ServiceOption{}, false, err
	}

	option := ServiceOption{
		ServiceID:         svc.ID,
		ServiceCode:       svc.Code,
		ServiceName:       svc.Name,
		RoomCount:         len(rooms),
		RecommendedRoomID: recommended.ID,
		RecommendedRoom:   recommended.Name,
		QueueLength:       int(queueLength),
	}

	if wait, ok := RoomWait(int(queueLength), e.effectiveDuration(svc.AverageDuration), recommended.Capacity); ok {
		option.EstimatedWait = wait
		option.Band = WaitBand(wait)
	} else {
		option.WaitUnavailable = true
		option.Band = BandRed
	}
	return option, true, nil
}
