package model

import "time"

// PatientCategory classifies patients for priority handling.
type PatientCategory string

const (
	CategoryNormal   PatientCategory = "normal"
	CategoryVIP      PatientCategory = "vip"
	CategoryVVIP     PatientCategory = "vvip"
	CategoryChild    PatientCategory = "child"
	CategoryPregnant PatientCategory = "pregnant"
	CategoryElderly  PatientCategory = "elderly"
)

// Patient carries the queue-relevant slice of the patient record: the
// package they are tracked against and the services already completed.
type Patient struct {
	ID        int64           `gorm:"primaryKey"`
	Code      string          `gorm:"uniqueIndex;size:64;not null"`
	Name      string          `gorm:"size:256;not null"`
	Category  PatientCategory `gorm:"size:16;not null;default:normal"`
	PackageID *int64          `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Package           *Package
	CompletedServices []Service `gorm:"many2many:patient_completed_services;"`
}
