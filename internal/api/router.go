package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"store-monitor-backend/internal/mw"
	"store-monitor-backend/internal/snapshot"
	"store-monitor-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, schedule *snapshot.Controller, syncer DeviceSyncer, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	db := s.DB()
	handler := NewHandler(s, schedule, syncer, webpushOptions)

	// Rate limit: 10 requests per second with a burst of 5
	rateLimiter := mw.RateLimiter(rate.Limit(10), 5)

	// Cache: 1 minute default expiration, cleaned up every 5 minutes. Readings
	// only change once per capture run, so short caching is safe.
	cacheStore := cache.New(time.Minute, 5*time.Minute)
	caching := mw.Cache(cacheStore, time.Minute)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/stores", caching, GetStores(db))
		api.GET("/stores/:store_id/devices", caching, GetStoreDevices(db))
		api.GET("/stores/:store_id/readings/latest", caching, handler.GetLatestReadings)
		api.GET("/stores/:store_id/readings", caching, handler.GetReadings)
		api.POST("/stores/:store_id/sync-devices", handler.SyncStoreDevices)

		api.GET("/schedule", handler.GetSchedule)
		api.POST("/schedule/toggle", handler.ToggleSchedule)
		api.PUT("/schedule/interval", handler.PutScheduleInterval)
		api.POST("/schedule/run", handler.RunScheduleNow)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
