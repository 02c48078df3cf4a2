package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetLatestReadings handles GET /api/stores/{store_id}/readings/latest: the
// most recent snapshot reading per device.
func (h *Handler) GetLatestReadings(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
		return
	}

	readings, err := h.store.LatestReadings(c.Request.Context(), storeID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve readings"})
		return
	}
	c.JSON(http.StatusOK, readings)
}

// GetReadings handles GET /api/stores/{store_id}/readings?since=&until= with
// RFC3339 bounds; the window defaults to the last 24 hours.
func (h *Handler) GetReadings(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("store_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid store ID"})
		return
	}

	until := time.Now().UTC()
	since := until.Add(-24 * time.Hour)

	if raw := c.Query("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'since' timestamp format. Use RFC3339."})
			return
		}
	}
	if raw := c.Query("until"); raw != "" {
		until, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid 'until' timestamp format. Use RFC3339."})
			return
		}
	}

	readings, err := h.store.ReadingsBetween(c.Request.Context(), storeID, since, until)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve readings"})
		return
	}
	c.JSON(http.StatusOK, readings)
}
