package model

import "time"

// Store represents a retail location being monitored.
type Store struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:128;not null"`
	Location  string `gorm:"size:256"`
	IsActive  bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Devices []Device `gorm:"foreignKey:StoreID"`
}
