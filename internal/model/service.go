package model

import "time"

// Service represents a clinical service (examination, lab test, ...) that
// rooms are assigned to and packages bundle together.
type Service struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;size:64;not null"`
	Name string `gorm:"size:256;not null"`
	// AverageDuration is the expected minutes to serve one patient.
	// Zero means "unknown"; the estimator substitutes its default.
	AverageDuration float64 `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
