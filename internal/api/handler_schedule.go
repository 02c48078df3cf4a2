package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetSchedule handles GET /api/schedule.
func (h *Handler) GetSchedule(c *gin.Context) {
	sched, err := h.schedule.Schedule(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedule"})
		return
	}
	c.JSON(http.StatusOK, sched)
}

// ToggleSchedule handles POST /api/schedule/toggle.
func (h *Handler) ToggleSchedule(c *gin.Context) {
	sched, err := h.schedule.Toggle(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle schedule"})
		return
	}
	c.JSON(http.StatusOK, sched)
}

type putIntervalRequest struct {
	IntervalMinutes int `json:"interval_minutes" binding:"required"`
}

// PutScheduleInterval handles PUT /api/schedule/interval.
func (h *Handler) PutScheduleInterval(c *gin.Context) {
	var req putIntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched, err := h.schedule.SetInterval(c.Request.Context(), req.IntervalMinutes)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sched)
}

// RunScheduleNow handles POST /api/schedule/run: an immediate forced capture
// that records its outcome but leaves the active flag untouched.
func (h *Handler) RunScheduleNow(c *gin.Context) {
	result, err := h.schedule.RunTick(c.Request.Context(), true)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
