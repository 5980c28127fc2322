package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-queue-backend/internal/model"
)

func TestAvailableCoordinationServices(t *testing.T) {
	ctx := context.Background()

	t.Run("filters package services", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svcX := seedService(t, db, "X", "Service X", 10)
		svcY := seedService(t, db, "Y", "Service Y", 20)
		svcDone := seedService(t, db, "D", "Done Service", 10)
		svcNoRoom := seedService(t, db, "N", "No Room Service", 10)
		roomA := seedRoom(t, db, "A", svcX.ID, 2, model.RoomOpen)
		roomB := seedRoom(t, db, "B", svcY.ID, 4, model.RoomOpen)
		seedRoom(t, db, "D1", svcDone.ID, 2, model.RoomOpen)
		seedRoom(t, db, "N1", svcNoRoom.ID, 2, model.RoomClosed)

		pkg := seedPackage(t, db, "PKG", svcX, svcY, svcDone, svcNoRoom)
		patient := seedPatient(t, db, "p1", pkg)
		markCompleted(t, db, patient, svcDone)
		seedWaitingToken(t, db, patient, svcX, roomA, 1)

		// One stranger already waiting in B.
		other := seedPatient(t, db, "o1", nil)
		seedWaitingToken(t, db, other, svcY, roomB, 1)

		options, err := engine.AvailableCoordinationServices(ctx, patient.ID)
		require.NoError(t, err)

		// Current service, completed service, and the service without an
		// open room are all absent.
		require.Len(t, options, 1)
		opt := options[0]
		assert.Equal(t, svcY.ID, opt.ServiceID)
		assert.Equal(t, "Y", opt.ServiceCode)
		assert.Equal(t, 1, opt.RoomCount)
		assert.Equal(t, roomB.ID, opt.RecommendedRoomID)
		assert.Equal(t, 1, opt.QueueLength)
		// 1 waiting x 20 min / capacity 4 = 5 minutes.
		assert.InDelta(t, 5.0, opt.EstimatedWait, 0.001)
		assert.Equal(t, BandGreen, opt.Band)
		assert.False(t, opt.WaitUnavailable)
	})

	t.Run("empty without a waiting token", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svc := seedService(t, db, "X", "Service X", 10)
		seedRoom(t, db, "A", svc.ID, 2, model.RoomOpen)
		pkg := seedPackage(t, db, "PKG", svc)
		patient := seedPatient(t, db, "p1", pkg)

		options, err := engine.AvailableCoordinationServices(ctx, patient.ID)
		require.NoError(t, err)
		assert.Empty(t, options)
	})

	t.Run("empty without a package", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svc := seedService(t, db, "X", "Service X", 10)
		room := seedRoom(t, db, "A", svc.ID, 2, model.RoomOpen)
		patient := seedPatient(t, db, "p1", nil)
		seedWaitingToken(t, db, patient, svc, room, 1)

		options, err := engine.AvailableCoordinationServices(ctx, patient.ID)
		require.NoError(t, err)
		assert.Empty(t, options)
	})

	t.Run("zero capacity room has no estimate", func(t *testing.T) {
		engine, _, db := newTestEngine(t)
		svcX := seedService(t, db, "X", "Service X", 10)
		svcY := seedService(t, db, "Y", "Service Y", 10)
		roomA := seedRoom(t, db, "A", svcX.ID, 2, model.RoomOpen)
		seedRoom(t, db, "B", svcY.ID, 0, model.RoomOpen)
		pkg := seedPackage(t, db, "PKG", svcX, svcY)
		patient := seedPatient(t, db, "p1", pkg)
		seedWaitingToken(t, db, patient, svcX, roomA, 1)

		options, err := engine.AvailableCoordinationServices(ctx, patient.ID)
		require.NoError(t, err)
		require.Len(t, options, 1)
		assert.True(t, options[0].WaitUnavailable)
		assert.Equal(t, BandRed, options[0].Band)
		assert.Zero(t, options[0].EstimatedWait)
	})

	t.Run("unknown patient", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		_, err := engine.AvailableCoordinationServices(ctx, 99999)
		requireKind(t, err, KindNotFound)
	})
}

func TestServicesCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	engine, _, db := newTestEngine(t)

	svcX := seedService(t, db, "X", "Service X", 10)
	svcY := seedService(t, db, "Y", "Service Y", 10)
	svcZ := seedService(t, db, "Z", "Service Z", 10)
	roomA := seedRoom(t, db, "A", svcX.ID, 2, model.RoomOpen)
	seedRoom(t, db, "B", svcY.ID, 2, model.RoomOpen)
	seedRoom(t, db, "C", svcZ.ID, 2, model.RoomOpen)
	pkg := seedPackage(t, db, "PKG", svcX, svcY, svcZ)
	patient := seedPatient(t, db, "p1", pkg)
	seedWaitingToken(t, db, patient, svcX, roomA, 1)

	options, err := engine.AvailableCoordinationServices(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, options, 2)

	// Second read comes from cache, byte for byte the same view.
	again, err := engine.AvailableCoordinationServices(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, options, again)

	// Coordinating drops the cache: Y is now current, X reappears.
	_, err = engine.CoordinateToService(ctx, testActor, patient.ID, svcY.ID)
	require.NoError(t, err)

	after, err := engine.AvailableCoordinationServices(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, after, 2)
	ids := []int64{after[0].ServiceID, after[1].ServiceID}
	assert.Contains(t, ids, svcX.ID)
	assert.Contains(t, ids, svcZ.ID)
	assert.NotContains(t, ids, svcY.ID)
}
