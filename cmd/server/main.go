package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/bus-reservation/internal/config"
	"github.com/smarttransit/bus-reservation/internal/database"
	"github.com/smarttransit/bus-reservation/internal/handlers"
	"github.com/smarttransit/bus-reservation/internal/middleware"
	"github.com/smarttransit/bus-reservation/internal/services"
	"github.com/smarttransit/bus-reservation/pkg/jwt"
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

	logger.Info("Starting SmartTransit Bus Reservation Service")
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

	// Open ledger storage
	logger.WithField("driver", cfg.Storage.Driver).Info("Opening ledger store...")
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, closer, err := database.OpenLedgerStore(startupCtx, cfg.Storage, cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to open ledger store: %v", err)
	}

	ledgerConfig := services.LedgerConfig{
		MinTravelYear:        cfg.Ledger.MinTravelYear,
		MaxSeatsPerBus:       cfg.Ledger.MaxSeatsPerBus,
		RejectOversizedSeats: cfg.Ledger.RejectOversizedSeats,
	}
	reservations, err := services.LoadReservationService(startupCtx, store, ledgerConfig, time.Now, logger)
	cancelStartup()
	if err != nil {
		logger.Fatalf("Failed to load ledger: %v", err)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	authService := services.NewOperatorAuthService(
		services.NewBcryptVerifier(cfg.Operator.Username, cfg.Operator.PasswordHash),
		jwtService,
		cfg.Operator.MaxLoginAttempts,
		cfg.Operator.LockoutDuration,
		time.Now,
		logger,
	)
	documentService := services.NewBillDocumentService(logger)

	backupCodec, err := database.NewCodec(cfg.Storage.Codec)
	if err != nil {
		logger.Fatalf("Failed to create backup codec: %v", err)
	}
	cronService := services.NewCronService(reservations, backupCodec, cfg.Backup.Dir, cfg.Backup.Keep, time.Now, logger)
	if cfg.Backup.Schedule != "" {
		if err := cronService.Start(cfg.Backup.Schedule); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		defer cronService.Stop()
	}

	logger.Info("Services initialized")

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(reservations, cfg.Storage.Driver))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	handlers.RegisterRoutes(router.Group("/api/v1"), handlers.Handlers{
		Auth:   handlers.NewAuthHandler(authService, logger),
		Bus:    handlers.NewBusHandler(reservations, logger),
		Ticket: handlers.NewTicketHandler(reservations, logger),
		Bill:   handlers.NewBillHandler(reservations, documentService, logger),
		Admin:  handlers.NewAdminHandler(cronService, logger),
	}, jwtService, logger)

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

	shutdown(ctx, reservations, closer, logger)
	logger.Info("Server exited successfully")
}

// shutdown saves the ledger one last time before the store is closed
func shutdown(ctx context.Context, reservations *services.ReservationService, closer io.Closer, logger *logrus.Logger) {
	if err := reservations.Flush(ctx); err != nil {
		logger.Errorf("Failed to flush ledger: %v", err)
	}
	if err := closer.Close(); err != nil {
		logger.Errorf("Failed to close ledger store: %v", err)
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(reservations *services.ReservationService, driver string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger := reservations.Snapshot()

		activeBuses := 0
		for i := range ledger.Buses.Records {
			if ledger.Buses.Records[i].IsActive {
				activeBuses++
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"storage":      driver,
			"active_buses": activeBuses,
			"tickets":      len(ledger.Tickets.Records),
			"bills":        len(ledger.Bills.Records),
			"version":      version,
			"timestamp":    time.Now().Unix(),
		})
	}
}
