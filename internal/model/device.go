package model

import "time"

// Device represents one YoSmart sensor or hub attached to a store.
type Device struct {
	ID       int64  `gorm:"primaryKey"`
	StoreID  int64  `gorm:"index;not null;uniqueIndex:idx_store_device"`
	DeviceID string `gorm:"size:64;not null;uniqueIndex:idx_store_device"` // Vendor-assigned identifier
	// Token is the per-device secret sent alongside the account access token.
	Token     string `gorm:"size:128;not null"`
	Type      string `gorm:"size:64;not null"` // e.g. "THSensor", "DoorSensor", "Hub"
	Name      string `gorm:"size:256"`
	ModelName string `gorm:"size:64"`
	IsHub     bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Store Store `gorm:"constraint:OnDelete:CASCADE"`
}
