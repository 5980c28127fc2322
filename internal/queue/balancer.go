package queue

import (
	"context"

	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/store"
)

// FindLeastLoadedRoom picks the open room for a service with the lowest
// load ratio (waiting count / capacity). Returns (nil, nil) when the
// service has no open room. Candidates arrive ordered by room code, and
// only a strictly lower ratio displaces the current pick, so ties go to
// the lowest code. Pure query, no side effects.
func FindLeastLoadedRoom(ctx context.Context, s store.Store, serviceID int64) (*model.Room, error) {
	rooms, err := s.OpenRoomsForService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	var best *model.Room
	bestRatio := 0.0
	for i := range rooms {
		waiting, err := s.WaitingCount(ctx, rooms[i].ID)
		if err != nil {
			return nil, err
		}
		ratio := LoadRatio(waiting, rooms[i].Capacity)
		if best == nil || ratio < bestRatio {
			best = &rooms[i]
			bestRatio = ratio
		}
	}
	return best, nil
}
