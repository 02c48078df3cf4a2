package model

import "time"

// Reading is one normalized snapshot observation for a device. Rows are
// written once per capture run and never updated.
type Reading struct {
	ID       int64 `gorm:"autoIncrement;primaryKey"`
	StoreID  int64 `gorm:"index;not null"`
	DeviceID int64 `gorm:"index;not null"`
	Online   bool  `gorm:"not null"`

	Temperature     *float64
	TemperatureUnit string `gorm:"size:1"` // "C" or "F"
	Humidity        *float64
	Battery         *int // 0-4 ordinal reported by the vendor
	Alarm           bool `gorm:"not null"`

	State string `gorm:"size:64"` // Free-form device state label, e.g. "open", "normal"
	// RawState holds the full vendor response as JSON, or {"error": ...} when
	// the call for this device failed.
	RawState string `gorm:"type:text"`

	RunID string `gorm:"size:36;index"`
	// ReportedAt is the device-side timestamp, when the vendor supplies one.
	ReportedAt *time.Time
	// CapturedAt is the orchestrator clock at the moment of the call. Always set.
	CapturedAt time.Time `gorm:"not null;index"`

	// Associations
	Store  Store  `gorm:"constraint:OnDelete:CASCADE"`
	Device Device `gorm:"constraint:OnDelete:CASCADE"`
}
