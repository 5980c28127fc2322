package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-queue-backend/internal/model"
)

// Store defines the data access surface used by the coordination engine
// and the API layer. All token and room mutations go through it; nothing
// touches the tables directly.
type Store interface {
	DB() *gorm.DB
	// Transaction runs fn against a Store bound to one database
	// transaction. The coordination engine uses it to make the
	// validate/create/log/retire pipeline all-or-nothing.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetService(ctx context.Context, id int64) (*model.Service, error)
	GetPatient(ctx context.Context, id int64) (*model.Patient, error)
	GetRoom(ctx context.Context, id int64) (*model.Room, error)
	AllRooms(ctx context.Context) ([]model.Room, error)
	OpenRoomsForService(ctx context.Context, serviceID int64) ([]model.Room, error)
	SetRoomState(ctx context.Context, roomID int64, state model.RoomState) (*model.Room, error)

	GetToken(ctx context.Context, id int64) (*model.Token, error)
	WaitingTokens(ctx context.Context, roomID int64) ([]model.Token, error)
	WaitingCount(ctx context.Context, roomID int64) (int64, error)
	CountAhead(ctx context.Context, roomID int64, position int) (int64, error)
	CurrentWaitingToken(ctx context.Context, patientID int64) (*model.Token, error)
	WaitingTokenForService(ctx context.Context, patientID, serviceID int64) (*model.Token, error)
	CountWaitingByPatient(ctx context.Context, patientID int64) (int64, error)
	CreateTokenAtBack(ctx context.Context, t *model.Token) error
	DeleteToken(ctx context.Context, id int64) error

	AppendLog(ctx context.Context, entry *model.CoordinationLog) error
	Logs(ctx context.Context, filter LogFilter) ([]model.CoordinationLog, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// lockForUpdate adds a row lock on dialects that support it. SQLite has no
// row locks; its single-writer transactions already serialize writes.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *gormStore) GetService(ctx context.Context, id int64) (*model.Service, error) {
	var svc model.Service
	if err := s.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *gormStore) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	var patient model.Patient
	err := s.db.WithContext(ctx).
		Preload("Package.Services").
		Preload("CompletedServices").
		First(&patient, id).Error
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *gormStore) GetRoom(ctx context.Context, id int64) (*model.Room, error) {
	var room model.Room
	if err := s.db.WithContext(ctx).Preload("Service").First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *gormStore) AllRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := s.db.WithContext(ctx).Preload("Service").Order("code").Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// OpenRoomsForService returns the open rooms assigned to a service,
// ordered by room code so load-balancer tie-breaks are deterministic.
func (s *gormStore) OpenRoomsForService(ctx context.Context, serviceID int64) ([]model.Room, error) {
	var rooms []model.Room
	err := s.db.WithContext(ctx).
		Preload("Service").
		Where("service_id = ? AND state = ?", serviceID, model.RoomOpen).
		Order("code").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open rooms for service %d: %w", serviceID, err)
	}
	return rooms, nil
}

func (s *gormStore) SetRoomState(ctx context.Context, roomID int64, state model.RoomState) (*model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&room, roomID).Error; err != nil {
			return err
		}
		if err := tx.Model(&room).Update("state", state).Error; err != nil {
			return fmt.Errorf("failed to update state of room %d: %w", roomID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	room.State = state
	return &room, nil
}
