package models

import "time"

// Turn represents a class shift with a daily time window.
// StartTime/EndTime are stored as "HH:MM:SS" strings to match the
// time-of-day columns used by the admin frontend.
type Turn struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string `gorm:"size:100;not null;uniqueIndex"`
	StartTime string `gorm:"size:8;not null"`
	EndTime   string `gorm:"size:8;not null"`
	IsActive  bool   `gorm:"default:false;not null"`
}
