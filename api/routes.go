package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/expirehq/domain-monitor/api/handlers"
	"github.com/expirehq/domain-monitor/api/middleware"
	"github.com/expirehq/domain-monitor/config"
	"github.com/expirehq/domain-monitor/internal/repository"
	"github.com/expirehq/domain-monitor/internal/tracing"
	"github.com/expirehq/domain-monitor/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, s *services.Services, repos *repository.Repositories, db *gorm.DB, nextRun func() time.Time) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg, repos, s, nextRun)

	// Health check endpoint (unauthenticated, used by Docker and probes)
	r.GET("/health", handlers.HealthCheck(db))

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-DOMAIN-MONITOR-API-KEY",
		ValidAPIKey: cfg.AppConfig.APIKey,
	})

	// API group with version and tracing
	api := r.Group("/api")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware())
	{
		api.GET("/stats", apiHandlers.Stats.Get())

		// Domain endpoints
		domains := api.Group("/domains")
		{
			domains.GET("", apiHandlers.Domains.List())
			domains.POST("", apiHandlers.Domains.Create())
			domains.GET("/:id", apiHandlers.Domains.Get())
			domains.PUT("/:id", apiHandlers.Domains.Update())
			domains.DELETE("/:id", apiHandlers.Domains.Delete())
			domains.POST("/:id/check", apiHandlers.Domains.ForceCheck())
			domains.GET("/:id/notifications", apiHandlers.Domains.Notifications())
			domains.PATCH("/:id/toggle", apiHandlers.Domains.Toggle())
		}

		// Notification endpoints
		notifications := api.Group("/notifications")
		{
			notifications.POST("/test", apiHandlers.Notifications.Test())
		}
	}
}
