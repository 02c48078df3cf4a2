package api

import (
	"context"

	"github.com/SherClockHolmes/webpush-go"

	"store-monitor-backend/internal/snapshot"
	"store-monitor-backend/internal/store"
)

// DeviceSyncer pulls the vendor device list into a store.
type DeviceSyncer interface {
	SyncDevices(ctx context.Context, storeID int64) (int, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	schedule *snapshot.Controller
	syncer   DeviceSyncer
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, schedule *snapshot.Controller, syncer DeviceSyncer, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		schedule: schedule,
		syncer:   syncer,
		webpush:  webpushOptions,
	}
}
