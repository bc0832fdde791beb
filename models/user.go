package models

import (
	"time"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"size:50;not null;unique"`
	Email          string `gorm:"size:100;not null;unique"`
	HashedPassword []byte `gorm:"not null"`
	RoleID         uint   `gorm:"index;not null"`
	Role           Role   `gorm:"foreignKey:RoleID;references:ID"`
	IsActive       bool   `gorm:"default:true;not null"`
	LastLogin      *time.Time
	RefreshTokens  []RefreshToken `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
