package models

import "time"

// Process represents a registration process (e.g. "2026-I").
type Process struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:100;not null"`
	Code      string `gorm:"size:20;not null;uniqueIndex"`
	IsActive  bool   `gorm:"default:true;not null"`
}
