package model

import "time"

// CoordinationType classifies a coordination action.
type CoordinationType string

const (
	CoordinationServiceChange  CoordinationType = "service_change"
	CoordinationRoomChange     CoordinationType = "room_change"
	CoordinationPositionChange CoordinationType = "position_change"
)

// CoordinationLog is the immutable audit record of one transfer. Entries
// are created exactly once per coordination action, never mutated, and
// queried newest-first.
//
// Token references are snapshots: the old token is deleted by the engine,
// so both the numeric IDs and the stable codes are recorded.
type CoordinationLog struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Summary string `gorm:"size:512;not null" json:"summary"`

	PatientID int64 `gorm:"index;not null" json:"patient_id"`
	UserID    int64 `gorm:"not null" json:"user_id"`

	Type CoordinationType `gorm:"size:32;not null" json:"type"`

	FromServiceID int64  `gorm:"not null" json:"from_service_id"`
	ToServiceID   int64  `gorm:"not null" json:"to_service_id"`
	FromRoomID    *int64 `gorm:"index" json:"from_room_id"`
	ToRoomID      int64  `gorm:"index;not null" json:"to_room_id"`

	OldPosition int `json:"old_position"`
	NewPosition int `json:"new_position"`

	OldTokenID   *int64 `json:"old_token_id"`
	OldTokenCode string `gorm:"size:64" json:"old_token_code"`
	NewTokenID   int64  `json:"new_token_id"`
	NewTokenCode string `gorm:"size:64" json:"new_token_code"`

	PriorityLevel int       `json:"priority_level"`
	Reason        string    `gorm:"size:512" json:"reason"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
