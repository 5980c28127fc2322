package model

import "time"

// Package is a bundle of services a patient is entitled to complete.
type Package struct {
	ID        int64  `gorm:"primaryKey"`
	Code      string `gorm:"uniqueIndex;size:64;not null"`
	Name      string `gorm:"size:256;not null"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Services []Service `gorm:"many2many:package_services;"`
}

// Priority is a configurable urgency level snapshotted onto tokens.
// Higher level means served sooner.
type Priority struct {
	ID          int64  `gorm:"primaryKey"`
	Code        string `gorm:"uniqueIndex;size:64;not null"`
	Name        string `gorm:"size:128;not null"`
	Level       int    `gorm:"uniqueIndex;not null"`
	Description string `gorm:"size:512"`
}
