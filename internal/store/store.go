package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"store-monitor-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	ListActiveStoresWithDevices(ctx context.Context) ([]model.Store, error)
	CreateReading(ctx context.Context, reading *model.Reading) error
	UpsertDevices(ctx context.Context, storeID int64, devices []model.Device) error
	LoadOrCreateSchedule(ctx context.Context) (*model.Schedule, error)
	SaveSchedule(ctx context.Context, sched *model.Schedule) error
	LatestReadings(ctx context.Context, storeID int64) ([]model.Reading, error)
	ReadingsBetween(ctx context.Context, storeID int64, since, until time.Time) ([]model.Reading, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListActiveStoresWithDevices returns every active store with its device tree,
// in stable order.
func (s *gormStore) ListActiveStoresWithDevices(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := s.db.WithContext(ctx).
		Preload("Devices", func(db *gorm.DB) *gorm.DB {
			return db.Order("devices.id")
		}).
		Where("is_active = ?", true).
		Order("id").
		Find(&stores).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active stores: %w", err)
	}
	return stores, nil
}

// CreateReading persists one immutable snapshot reading.
func (s *gormStore) CreateReading(ctx context.Context, reading *model.Reading) error {
	if err := s.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("failed to create reading for device %d: %w", reading.DeviceID, err)
	}
	return nil
}

// UpsertDevices inserts or refreshes device descriptors for one store, keyed
// by the vendor device identifier.
func (s *gormStore) UpsertDevices(ctx context.Context, storeID int64, devices []model.Device) error {
	if len(devices) == 0 {
		return nil
	}
	for i := range devices {
		devices[i].StoreID = storeID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "type", "name", "model_name", "is_hub", "updated_at"}),
		}).Create(&devices).Error; err != nil {
			return fmt.Errorf("batch upsert devices failed: %w", err)
		}
		return nil
	})
}

// LoadOrCreateSchedule returns the singleton schedule record, creating it
// inactive with the default interval on first access.
func (s *gormStore) LoadOrCreateSchedule(ctx context.Context) (*model.Schedule, error) {
	var sched model.Schedule
	err := s.db.WithContext(ctx).
		Where(model.Schedule{ID: model.ScheduleID}).
		Attrs(model.Schedule{IntervalMinutes: 60}).
		FirstOrCreate(&sched).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return &sched, nil
}

// SaveSchedule writes back the full schedule record.
func (s *gormStore) SaveSchedule(ctx context.Context, sched *model.Schedule) error {
	if err := s.db.WithContext(ctx).Save(sched).Error; err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

// LatestReadings returns the most recent reading per device for one store.
func (s *gormStore) LatestReadings(ctx context.Context, storeID int64) ([]model.Reading, error) {
	sub := s.db.Model(&model.Reading{}).
		Select("MAX(id)").
		Where("store_id = ?", storeID).
		Group("device_id")

	var readings []model.Reading
	err := s.db.WithContext(ctx).
		Preload("Device").
		Where("id IN (?)", sub).
		Order("device_id").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load latest readings for store %d: %w", storeID, err)
	}
	return readings, nil
}

// ReadingsBetween returns a store's readings captured in [since, until].
func (s *gormStore) ReadingsBetween(ctx context.Context, storeID int64, since, until time.Time) ([]model.Reading, error) {
	var readings []model.Reading
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND captured_at >= ? AND captured_at <= ?", storeID, since, until).
		Order("captured_at").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for store %d: %w", storeID, err)
	}
	return readings, nil
}
