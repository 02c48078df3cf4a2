package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"store-monitor-backend/internal/model"
)

// StoreResponse represents the API response for a single store.
type StoreResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	IsActive     bool   `json:"isActive"`
	TotalDevices int64  `json:"totalDevices"`
}

// GetStores handles the GET /api/stores request.
func GetStores(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var stores []model.Store
		if err := db.Order("id").Find(&stores).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stores"})
			return
		}

		type aggRow struct {
			StoreID      int64
			TotalDevices int64
		}
		var aggs []aggRow
		if err := db.
			Model(&model.Device{}).
			Select("store_id as store_id, COUNT(*) as total_devices").
			Group("store_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate devices"})
			return
		}

		aggMap := make(map[int64]aggRow, len(aggs))
		for _, a := range aggs {
			aggMap[a.StoreID] = a
		}

		responses := make([]StoreResponse, 0, len(stores))
		for _, st := range stores {
			a := aggMap[st.ID] // zero value when the store has no devices
			responses = append(responses, StoreResponse{
				ID:           st.ID,
				Name:         st.Name,
				Location:     st.Location,
				IsActive:     st.IsActive,
				TotalDevices: a.TotalDevices,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetStoreDevices handles the GET /api/stores/{store_id}/devices request.
func GetStoreDevices(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
			return
		}

		var devices []model.Device
		if err := db.Where("store_id = ?", storeID).Order("id").Find(&devices).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve devices"})
			return
		}
		c.JSON(http.StatusOK, devices)
	}
}

// SyncStoreDevices handles POST /api/stores/{store_id}/sync-devices: it pulls
// the vendor device list into the store.
func (h *Handler) SyncStoreDevices(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
		return
	}

	count, err := h.syncer.SyncDevices(c.Request.Context(), storeID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices_synced": count})
}
