package monitor

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"thesis-supervision-api/config"
	"thesis-supervision-api/models"
)

var startedAt = time.Now()

// RegisterMonitorPage exposes a small operational status endpoint used by
// the ops dashboard.
func RegisterMonitorPage(router *gin.Engine) {
	router.GET("/monitor", func(c *gin.Context) {
		dbOK := false
		var pendingReviews int64
		if config.DB != nil {
			if sqlDB, err := config.DB.DB(); err == nil {
				dbOK = sqlDB.Ping() == nil
			}
			config.DB.Model(&models.Submission{}).
				Where("status = ?", models.StatusPending).
				Count(&pendingReviews)
		}

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		c.JSON(200, gin.H{
			"status":          "ok",
			"uptime":          time.Since(startedAt).String(),
			"database":        dbOK,
			"pending_reviews": pendingReviews,
			"goroutines":      runtime.NumGoroutine(),
			"heap_alloc_mb":   mem.HeapAlloc / (1024 * 1024),
		})
	})
}
