package queue

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appdb "clinic-queue-backend/internal/db"
	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/store"
)

// newTestEngine spins up an isolated in-memory database, migrated and
// wrapped in a fresh engine. Each test gets its own named database so
// state cannot leak between tests sharing the process.
func newTestEngine(t *testing.T) (*Engine, store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, appdb.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	s := store.NewGormStore(db)
	engine := NewEngine(s, cache.New(time.Minute, time.Minute), zerolog.Nop(), time.Minute, 0)
	return engine, s, db
}

func seedService(t *testing.T, db *gorm.DB, code, name string, avgDuration float64) *model.Service {
	t.Helper()
	svc := &model.Service{Code: code, Name: name, AverageDuration: avgDuration}
	require.NoError(t, db.Create(svc).Error)
	return svc
}

func seedRoom(t *testing.T, db *gorm.DB, code string, serviceID int64, capacity int, state model.RoomState) *model.Room {
	t.Helper()
	room := &model.Room{Code: code, Name: "Room " + code, ServiceID: serviceID, Capacity: capacity, State: state}
	require.NoError(t, db.Create(room).Error)
	return room
}

func seedPackage(t *testing.T, db *gorm.DB, code string, services ...*model.Service) *model.Package {
	t.Helper()
	pkg := &model.Package{Code: code, Name: "Package " + code, Active: true}
	require.NoError(t, db.Create(pkg).Error)
	for _, svc := range services {
		require.NoError(t, db.Model(pkg).Association("Services").Append(svc))
	}
	return pkg
}

func seedPatient(t *testing.T, db *gorm.DB, code string, pkg *model.Package) *model.Patient {
	t.Helper()
	patient := &model.Patient{Code: code, Name: "Patient " + code, Category: model.CategoryNormal}
	if pkg != nil {
		patient.PackageID = &pkg.ID
	}
	require.NoError(t, db.Create(patient).Error)
	return patient
}

func markCompleted(t *testing.T, db *gorm.DB, patient *model.Patient, svc *model.Service) {
	t.Helper()
	require.NoError(t, db.Model(patient).Association("CompletedServices").Append(svc))
}

func seedWaitingToken(t *testing.T, db *gorm.DB, patient *model.Patient, svc *model.Service, room *model.Room, position int) *model.Token {
	t.Helper()
	token := &model.Token{
		Code:      fmt.Sprintf("tok-%s-%d", patient.Code, position),
		PatientID: patient.ID,
		ServiceID: svc.ID,
		RoomID:    room.ID,
		Position:  position,
		State:     model.TokenWaiting,
		PackageID: patient.PackageID,
	}
	require.NoError(t, db.Create(token).Error)
	return token
}
