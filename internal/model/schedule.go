package model

import "time"

// ScheduleID is the primary key of the single global schedule row.
const ScheduleID int64 = 1

// Schedule is the singleton control record for automatic snapshot capture.
// NextRunAt is null while inactive; while active it is recomputed after every
// run attempt, success or failure, as tick start + interval.
type Schedule struct {
	ID                  int64 `gorm:"primaryKey"`
	IsActive            bool  `gorm:"not null;default:false"`
	IntervalMinutes     int   `gorm:"not null;default:60"`
	LastRunAt           *time.Time
	NextRunAt           *time.Time
	TotalRuns           int64   `gorm:"not null;default:0"`
	ConsecutiveFailures int     `gorm:"not null;default:0"`
	LastError           *string `gorm:"size:1024"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
