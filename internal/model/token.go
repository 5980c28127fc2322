package model

import "time"

// TokenState is the lifecycle state of a waiting token. Only "waiting"
// tokens participate in queue order; the terminal states are set by the
// serving side, not by the coordination engine (which deletes instead).
type TokenState string

const (
	TokenWaiting   TokenState = "waiting"
	TokenServed    TokenState = "served"
	TokenCancelled TokenState = "cancelled"
)

// Token is one patient's claim on one room's queue for one service.
//
// At most one token per patient may be in waiting state at a time; the
// coordination engine retires the old token in the same transaction that
// creates its replacement. Position defines service order within a room
// (lower is served sooner); gaps left by retirements are not compacted.
type Token struct {
	ID        int64      `gorm:"primaryKey"`
	Code      string     `gorm:"uniqueIndex;size:64;not null"`
	PatientID int64      `gorm:"index;not null"`
	ServiceID int64      `gorm:"not null"`
	RoomID    int64      `gorm:"index;not null"`
	Position  int        `gorm:"not null"`
	State     TokenState `gorm:"size:16;index;not null;default:waiting"`
	// PriorityLevel is a snapshot of the priority at issue time; higher
	// means more urgent. Emergency overrides any level.
	PriorityLevel int    `gorm:"not null;default:0"`
	PriorityID    *int64 `gorm:"index"`
	Emergency     bool   `gorm:"not null;default:false"`
	PackageID     *int64 `gorm:"index"`
	Notes         string `gorm:"size:512"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Associations
	Patient  Patient
	Service  Service
	Room     Room
	Priority *Priority
}
