package internal

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"clinic-queue-backend/internal/db"
	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/queue"
	"clinic-queue-backend/internal/store"
)

// TestCoordinationLifecycle walks one patient through a full visit: a
// token is issued via room selection, the patient is coordinated across
// services as rooms fill and close, and the audit log records every hop.
func TestCoordinationLifecycle(t *testing.T) {
	// --- Test Setup ---

	// 1. Setup an in-memory SQLite database for testing.
	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to the in-memory database: %v", err)
	}
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, db.Migrate(testDB))

	// 2. Instantiate the store and coordination engine.
	gormStore := store.NewGormStore(testDB)
	engine := queue.NewEngine(gormStore, cache.New(time.Minute, time.Minute), zerolog.Nop(), time.Minute, 0)
	ctx := context.Background()
	actor := queue.Actor{UserID: 1}

	// 3. Pre-populate the clinic: three services, four rooms, one package.
	triage := model.Service{Code: "TRI", Name: "Triage", AverageDuration: 5}
	imaging := model.Service{Code: "IMG", Name: "Imaging", AverageDuration: 20}
	consult := model.Service{Code: "CON", Name: "Consultation", AverageDuration: 15}
	require.NoError(t, testDB.Create(&triage).Error)
	require.NoError(t, testDB.Create(&imaging).Error)
	require.NoError(t, testDB.Create(&consult).Error)

	rooms := []model.Room{
		{Code: "T1", Name: "Triage 1", ServiceID: triage.ID, Capacity: 2, State: model.RoomOpen},
		{Code: "I1", Name: "Imaging 1", ServiceID: imaging.ID, Capacity: 1, State: model.RoomOpen},
		{Code: "I2", Name: "Imaging 2", ServiceID: imaging.ID, Capacity: 2, State: model.RoomOpen},
		{Code: "C1", Name: "Consult 1", ServiceID: consult.ID, Capacity: 1, State: model.RoomOpen},
	}
	for i := range rooms {
		require.NoError(t, testDB.Create(&rooms[i]).Error)
	}

	pkg := model.Package{Code: "CHECKUP", Name: "Full Checkup", Active: true}
	require.NoError(t, testDB.Create(&pkg).Error)
	require.NoError(t, testDB.Model(&pkg).Association("Services").Append(&triage, &imaging, &consult))

	patient := model.Patient{Code: "P-0001", Name: "Test Patient", Category: model.CategoryNormal, PackageID: &pkg.ID}
	require.NoError(t, testDB.Create(&patient).Error)

	var firstTokenCode string

	// --- Step 1: patient checks in at triage via room selection ---
	t.Run("Step 1: Check in at triage", func(t *testing.T) {
		result, err := engine.CoordinateServiceRoom(ctx, actor, patient.ID, triage.ID, rooms[0].ID)
		require.NoError(t, err)
		assert.Nil(t, result.OldToken, "check-in creates a token, nothing to retire")
		assert.Equal(t, 1, result.NewToken.Position)
		firstTokenCode = result.NewToken.Code

		summary, err := engine.PatientQueueSummary(ctx, patient.ID)
		require.NoError(t, err)
		assert.True(t, summary.Waiting)
		assert.Equal(t, "Triage", summary.ServiceName)
		assert.Equal(t, 0, summary.CountAhead)
	})

	// --- Step 2: triage done, move to imaging; balancer prefers I2 ---
	t.Run("Step 2: Coordinate to imaging", func(t *testing.T) {
		require.NoError(t, testDB.Model(&patient).Association("CompletedServices").Append(&triage))

		// Imaging 1 (capacity 1) already has a patient waiting, so the
		// emptier Imaging 2 wins on load ratio.
		other := model.Patient{Code: "P-0002", Name: "Other Patient", Category: model.CategoryNormal}
		require.NoError(t, testDB.Create(&other).Error)
		require.NoError(t, testDB.Create(&model.Token{
			Code: "tok-other", PatientID: other.ID, ServiceID: imaging.ID,
			RoomID: rooms[1].ID, Position: 1, State: model.TokenWaiting,
		}).Error)

		result, err := engine.CoordinateToService(ctx, actor, patient.ID, imaging.ID)
		require.NoError(t, err)
		assert.Equal(t, rooms[2].ID, result.NewToken.RoomID, "balancer picks the emptier imaging room")
		assert.Equal(t, 1, result.NewToken.Position)

		// Exactly one waiting token for the patient, the old one gone.
		var count int64
		testDB.Model(&model.Token{}).Where("patient_id = ? AND state = ?", patient.ID, model.TokenWaiting).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	// --- Step 3: imaging room closes, staff move the patient by hand ---
	t.Run("Step 3: Room closes, manual reassignment", func(t *testing.T) {
		_, err := gormStore.SetRoomState(ctx, rooms[2].ID, model.RoomClosed)
		require.NoError(t, err)

		// The closed room is no longer a valid target.
		_, err = engine.CoordinateToRoom(ctx, actor, patient.ID, rooms[2].ID)
		var verr *queue.Error
		require.ErrorAs(t, err, &verr)

		result, err := engine.CoordinateToRoom(ctx, actor, patient.ID, rooms[1].ID)
		require.NoError(t, err)
		assert.Equal(t, rooms[1].ID, result.NewToken.RoomID)
		assert.Equal(t, 2, result.NewToken.Position, "queued behind the other imaging patient")
	})

	// --- Step 4: triage is complete, so going back is rejected ---
	t.Run("Step 4: Completed service is closed off", func(t *testing.T) {
		_, err := engine.CoordinateToService(ctx, actor, patient.ID, triage.ID)
		var verr *queue.Error
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, queue.KindAlreadyCompleted, verr.Kind)
	})

	// --- Step 5: the audit log tells the whole story ---
	t.Run("Step 5: Audit trail", func(t *testing.T) {
		logs, err := gormStore.Logs(ctx, store.LogFilter{PatientID: patient.ID})
		require.NoError(t, err)
		require.Len(t, logs, 3, "check-in, service change, room change")

		// Newest first.
		assert.Equal(t, model.CoordinationRoomChange, logs[0].Type)
		assert.Equal(t, model.CoordinationServiceChange, logs[1].Type)
		assert.Equal(t, model.CoordinationServiceChange, logs[2].Type)
		assert.Equal(t, firstTokenCode, logs[2].NewTokenCode, "oldest entry records the check-in token")

		// The failed coordinations left no trace.
		for _, entry := range logs {
			assert.NotZero(t, entry.Code)
			assert.Equal(t, patient.ID, entry.PatientID)
		}
	})
}
