package model

import "time"

// RoomState is the operational state of a service room.
type RoomState string

const (
	RoomOpen        RoomState = "open"
	RoomClosed      RoomState = "closed"
	RoomMaintenance RoomState = "maintenance"
)

// Valid reports whether s is one of the recognized room states.
func (s RoomState) Valid() bool {
	switch s {
	case RoomOpen, RoomClosed, RoomMaintenance:
		return true
	}
	return false
}

// Room is a service unit with a capacity and an open/closed/maintenance
// state. A room that is not open must never receive new waiting tokens.
type Room struct {
	ID        int64  `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:256;not null"`
	ServiceID int64  `gorm:"index;not null"`
	// Capacity is the number of patients served concurrently.
	Capacity  int       `gorm:"not null;default:1"`
	State     RoomState `gorm:"size:16;not null;default:open"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Service Service
}
