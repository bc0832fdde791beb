package models

import "time"

// Sede represents a campus location.
type Sede struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:100;not null;uniqueIndex"`
	Code      string `gorm:"size:20;not null;uniqueIndex"`
	IsActive  bool   `gorm:"default:true;not null"`
}
