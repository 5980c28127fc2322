package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-queue-backend/internal/model"
)

func TestQueuePositionInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("counts tokens ahead", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svc := seedService(t, db, "X", "Service X", 10)
		room := seedRoom(t, db, "A", svc.ID, 2, model.RoomOpen)

		first := seedPatient(t, db, "p1", nil)
		second := seedPatient(t, db, "p2", nil)
		third := seedPatient(t, db, "p3", nil)
		seedWaitingToken(t, db, first, svc, room, 1)
		seedWaitingToken(t, db, second, svc, room, 2)
		token := seedWaitingToken(t, db, third, svc, room, 3)

		info, err := engine.QueuePositionInfo(ctx, token.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, info.Position)
		assert.Equal(t, 2, info.CountAhead)
		// 2 ahead x 10 min / capacity 2 = 10 minutes.
		assert.InDelta(t, 10.0, info.EstimatedWait, 0.001)
		assert.Equal(t, BandGreen, info.Band)
	})

	t.Run("unknown token", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		_, err := engine.QueuePositionInfo(ctx, 99999)
		requireKind(t, err, KindNotFound)
	})
}

func TestPatientQueueSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("waiting patient", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svc := seedService(t, db, "X", "Cardiology", 30)
		room := seedRoom(t, db, "A", svc.ID, 1, model.RoomOpen)
		patient := seedPatient(t, db, "p1", nil)

		o1 := seedPatient(t, db, "o1", nil)
		o2 := seedPatient(t, db, "o2", nil)
		seedWaitingToken(t, db, o1, svc, room, 1)
		seedWaitingToken(t, db, o2, svc, room, 2)
		token := seedWaitingToken(t, db, patient, svc, room, 3)

		summary, err := engine.PatientQueueSummary(ctx, patient.ID)
		require.NoError(t, err)
		assert.True(t, summary.Waiting)
		assert.Equal(t, token.Code, summary.TokenCode)
		assert.Equal(t, "Cardiology", summary.ServiceName)
		assert.Equal(t, "Room A", summary.RoomName)
		assert.Equal(t, 3, summary.Position)
		assert.Equal(t, 2, summary.CountAhead)
		// 2 ahead x 30 min / capacity 1 = 60 minutes.
		assert.InDelta(t, 60.0, summary.EstimatedWait, 0.001)
		assert.Equal(t, "1 hour 0 minutes", summary.EstimatedWaitText)
		assert.Equal(t, BandRed, summary.Band)
	})

	t.Run("idle patient", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		patient := seedPatient(t, db, "p1", nil)

		summary, err := engine.PatientQueueSummary(ctx, patient.ID)
		require.NoError(t, err)
		assert.False(t, summary.Waiting)
		assert.Empty(t, summary.TokenCode)
	})

	t.Run("unknown patient", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		_, err := engine.PatientQueueSummary(ctx, 99999)
		requireKind(t, err, KindNotFound)
	})
}

func TestRoomDashboard(t *testing.T) {
	ctx := context.Background()
	engine, _, db := newTestEngine(t)

	svc := seedService(t, db, "X", "Service X", 10)
	roomA := seedRoom(t, db, "A", svc.ID, 2, model.RoomOpen)
	seedRoom(t, db, "B", svc.ID, 0, model.RoomClosed)

	patient := seedPatient(t, db, "p1", nil)
	urgent := seedPatient(t, db, "p2", nil)
	emergency := seedPatient(t, db, "p3", nil)
	seedWaitingToken(t, db, patient, svc, roomA, 1)
	tok := seedWaitingToken(t, db, urgent, svc, roomA, 2)
	require.NoError(t, db.Model(tok).Update("priority_level", 8).Error)
	tok = seedWaitingToken(t, db, emergency, svc, roomA, 3)
	require.NoError(t, db.Model(tok).Update("emergency", true).Error)

	statuses, err := engine.RoomDashboard(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	byCode := map[string]RoomStatus{}
	for _, s := range statuses {
		byCode[s.Code] = s
	}

	a := byCode["A"]
	assert.Equal(t, 3, a.QueueLength)
	assert.Equal(t, 2, a.PriorityCount)
	assert.Equal(t, model.RoomOpen, a.State)
	// 3 x 10 / 2 = 15 minutes.
	assert.InDelta(t, 15.0, a.EstimatedWait, 0.001)
	assert.Equal(t, BandGreen, a.Band)
	assert.False(t, a.WaitUnavail)

	b := byCode["B"]
	assert.Equal(t, model.RoomClosed, b.State)
	assert.Equal(t, 0, b.QueueLength)
	assert.True(t, b.WaitUnavail)
	assert.Equal(t, BandRed, b.Band)
}

func TestRoomSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("flags current and recommended", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svc := seedService(t, db, "X", "Service X", 10)
		roomA := seedRoom(t, db, "A", svc.ID, 2, model.RoomOpen)
		roomB := seedRoom(t, db, "B", svc.ID, 2, model.RoomOpen)
		seedRoom(t, db, "C", svc.ID, 2, model.RoomClosed)

		patient := seedPatient(t, db, "p1", nil)
		seedWaitingToken(t, db, patient, svc, roomA, 1)

		options, err := engine.RoomSelection(ctx, svc.ID, roomA.ID)
		require.NoError(t, err)
		require.Len(t, options, 2)

		assert.Equal(t, roomA.ID, options[0].RoomID)
		assert.True(t, options[0].IsCurrent)
		assert.False(t, options[0].IsRecommended)
		assert.Equal(t, 1, options[0].WaitingCount)

		assert.Equal(t, roomB.ID, options[1].RoomID)
		assert.False(t, options[1].IsCurrent)
		assert.True(t, options[1].IsRecommended)
		assert.Equal(t, 0, options[1].WaitingCount)
	})

	t.Run("unknown service", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		_, err := engine.RoomSelection(ctx, 99999, 0)
		requireKind(t, err, KindNotFound)
	})
}
