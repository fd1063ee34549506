package main

import (
	"strconv"
	"time"

	"vendor-service/internal/handler"
	"vendor-service/internal/middleware"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting vendor service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging and metrics middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Calculate duration
			duration := time.Since(start).Seconds()
			status := c.Response().Status
			statusStr := strconv.Itoa(status)

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.HttpRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				statusStr,
			).Inc()

			prometheus.HttpRequestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
				statusStr,
			).Observe(duration)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Token endpoints
	e.POST("/api/auth/register", handler.Register)
	e.POST("/api-token-auth", handler.ObtainToken)

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Vendor endpoints
	api.POST("/vendors", handler.CreateVendor)
	api.GET("/vendors", handler.ListVendors)
	api.GET("/vendors/:id", handler.GetVendor)
	api.PUT("/vendors/:id", handler.UpdateVendor)
	api.DELETE("/vendors/:id", handler.DeleteVendor)
	api.GET("/vendors/:id/performance", handler.GetVendorPerformance)

	// Purchase order endpoints
	api.POST("/purchase_orders", handler.CreatePurchaseOrder)
	api.GET("/purchase_orders", handler.ListPurchaseOrders)
	api.GET("/purchase_orders/:id", handler.GetPurchaseOrder)
	api.PUT("/purchase_orders/:id", handler.UpdatePurchaseOrder)
	api.DELETE("/purchase_orders/:id", handler.DeletePurchaseOrder)
	api.PUT("/purchase_orders/:id/acknowledge", handler.AcknowledgePurchaseOrder)

	// Historical performance endpoints
	api.GET("/historical_performance", handler.ListHistoricalPerformance)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
