package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/expirehq/domain-monitor/internal/utils"
)

// HealthCheck reports service liveness and database connectivity
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		database := "connected"
		if err := db.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
			status = "unhealthy"
			database = "disconnected"
		}

		httpStatus := http.StatusOK
		if status != "healthy" {
			httpStatus = http.StatusServiceUnavailable
		}
		c.JSON(httpStatus, gin.H{
			"status":    status,
			"database":  database,
			"timestamp": utils.Now(),
		})
	}
}
