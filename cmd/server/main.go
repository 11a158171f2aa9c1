package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/openroadtours/booking-backend/internal/config"
	"github.com/openroadtours/booking-backend/internal/database"
	"github.com/openroadtours/booking-backend/internal/handlers"
	"github.com/openroadtours/booking-backend/internal/middleware"
	"github.com/openroadtours/booking-backend/internal/services"
	"github.com/openroadtours/booking-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Open Road Tours Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize MongoDB connection
	logger.Info("Connecting to MongoDB...")
	mongoClient, db, err := database.Connect(cfg.Mongo, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()

	if err := database.EnsureIndexes(context.Background(), db); err != nil {
		logger.Fatalf("Failed to create indexes: %v", err)
	}
	logger.Info("Indexes ensured")

	// Initialize redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Dedupe and rate limiting degrade gracefully without redis
		logger.WithError(err).Warn("Redis unavailable at startup, continuing")
	} else {
		logger.Info("Connected to redis")
	}

	// Initialize repositories
	tourRepo := database.NewTourRepository(db)
	tourDateRepo := database.NewTourDateRepository(db)
	bookingRepo := database.NewBookingRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	stripeService := services.NewStripeService(&cfg.Stripe, logger)
	eventDeduper := services.NewEventDeduper(redisClient, logger)
	reservationService := services.NewReservationService(bookingRepo, tourDateRepo, stripeService, logger)
	reconciliationService := services.NewReconciliationService(bookingRepo, tourDateRepo, eventDeduper, logger)
	operatorAuthService := services.NewOperatorAuthService(&cfg.Operator, jwtService, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	tourHandler := handlers.NewTourHandler(tourRepo, tourDateRepo, logger)
	reservationHandler := handlers.NewReservationHandler(reservationService, logger)
	webhookHandler := handlers.NewWebhookHandler(stripeService, reconciliationService, logger)
	operatorHandler := handlers.NewOperatorHandler(operatorAuthService, tourDateRepo, bookingRepo, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(mongoClient))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public catalogue
		tours := v1.Group("/tours")
		{
			tours.GET("", tourHandler.List)
			tours.GET("/:slug", tourHandler.GetBySlug)
			tours.GET("/:slug/dates", tourHandler.ListDates)
		}

		// Reservation intake
		reservations := v1.Group("/reservations")
		reservations.Use(middleware.DeviceInfoMiddleware())
		{
			reservations.POST("", middleware.RateLimitMiddleware(redisClient, cfg.RateLimit, logger), reservationHandler.Create)
			reservations.GET("/:reference", reservationHandler.GetByReference)
		}

		// Payment gateway webhook. Authenticated by signature, never by
		// session; must stay outside CORS-sensitive browser flows
		v1.POST("/payments/webhook", webhookHandler.HandleWebhook)

		// Operator curation surface
		operator := v1.Group("/operator")
		{
			operator.POST("/login", operatorHandler.Login)
			operator.POST("/refresh", operatorHandler.Refresh)

			protected := operator.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService), middleware.RequireOperator())
			{
				protected.PATCH("/tour-dates/:id/availability", operatorHandler.UpdateAvailability)
				protected.GET("/bookings", operatorHandler.ListBookings)
			}
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	if err := redisClient.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close redis client")
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(client *mongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "healthy"
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
