package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ibook/config"
	"ibook/cron"
	"ibook/database"
	bookingRepo "ibook/database/repository/booking"
	providerRepo "ibook/database/repository/provider"
	"ibook/handlers"
	"ibook/middleware"
	"ibook/routes"
	"ibook/services/availability"
	"ibook/services/scheduling"
	"ibook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	provRepo := providerRepo.NewMongoProviderRepo()
	bookRepo := bookingRepo.NewMongoBookingRepo()
	if err := provRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure provider indexes: %v", err)
	}
	if err := bookRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// asynq client for delayed pending-booking expiry.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	// services.
	availabilityEngine := &availability.Engine{
		Providers: provRepo,
		Bookings:  bookRepo,
	}
	schedulingEngine := &scheduling.DefaultSchedulingEngine{
		Providers:    provRepo,
		Bookings:     bookRepo,
		Availability: availabilityEngine,
		Queue:        scheduling.NewAsynqExpiryQueue(asynqClient),
		PendingTTL:   time.Duration(config.AppConfig.PendingExpiryMinutes) * time.Minute,
	}

	// background worker cancelling stale Pending bookings.
	cron.InitExpiryWorker(schedulingEngine)
	utils.StartHealthMonitor(utils.GetQueueClient(), database.MongoClient)

	// Assemble the handler bundle and register routes.
	handlerBundle := &routes.HandlerBundle{
		Availability: handlers.NewAvailabilityHandler(availabilityEngine, logger),
		Booking:      handlers.NewBookingHandler(schedulingEngine, logger),
		Schedule:     handlers.NewScheduleHandler(provRepo, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
