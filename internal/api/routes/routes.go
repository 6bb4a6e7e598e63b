package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/api/handlers"
	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/metrics"
)

// Register wires up API routes and performs automatic migrations. When
// registry is not nil the service metrics are registered on it and served at
// /metrics.
func Register(router *gin.Engine, db *gorm.DB, cerb *cerberus.Cerberus, registry *prometheus.Registry) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	if registry != nil {
		metrics.Register(registry)
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	router.GET("/api/v1/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	// Blocked clients are rejected before reaching any handler when enforcement is on.
	api.Use(cerb.Middleware())

	securityHandler := handlers.NewSecurityHandler(cerb)
	security := api.Group("/security")
	{
		security.POST("/login/attempt", securityHandler.RecordAttempt)
		security.GET("/login/attempts", securityHandler.ListAttempts)
		security.POST("/rules", securityHandler.SetRule)
		security.POST("/rules/blocking", securityHandler.SetRule)
		security.GET("/rules", securityHandler.ListRules)
		security.GET("/rules/active", securityHandler.ActiveRule)
		security.GET("/alerts", securityHandler.Alerts)
		security.GET("/decisions", securityHandler.Decisions)
		security.GET("/status", securityHandler.Status)
	}

	ipHandler := handlers.NewIPHandler(cerb)
	ips := api.Group("/ips")
	{
		ips.GET("", ipHandler.List)
		ips.GET("/search", ipHandler.Search)
		ips.POST("", ipHandler.Create)
		ips.GET("/:ip_address", ipHandler.Get)
		ips.PATCH("/:ip_address", ipHandler.UpdateStatus)
	}

	return nil
}
