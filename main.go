package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payment-reconciler/internal/commerce"
	"payment-reconciler/internal/config"
	"payment-reconciler/internal/handlers"
	"payment-reconciler/internal/kafka"
	"payment-reconciler/internal/logger"
	"payment-reconciler/internal/metrics"
	"payment-reconciler/internal/middleware"
	"payment-reconciler/internal/models"
	"payment-reconciler/internal/psp"
	rediswrap "payment-reconciler/internal/redis"
	"payment-reconciler/internal/services"
	"payment-reconciler/internal/storage"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "Payment Reconciler starting up...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	log.LogProcess("DATABASE", "Initializing MySQL audit store...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	notificationLock := rediswrap.NewRedis(redisClient)
	log.LogProcess("REDIS", "Redis in-flight guard initialized")

	if cfg.PSP.APIKey == "" {
		log.Warn("PSP", "PSP_API_KEY environment variable not set")
	}
	pspClient := psp.NewClient(cfg.PSP, log)
	commerceClient := commerce.NewClient(cfg.Commerce, log)
	log.LogProcess("CLIENTS", "PSP and commerce backend clients initialized")

	reconciler := services.NewReconcilerService(pspClient, commerceClient, store, kafkaProducer, notificationLock, log)
	log.LogProcess("SERVICE", "Reconciler service initialized")

	webhookHandler := handlers.NewWebhookHandler(reconciler, log)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciler)
	log.LogProcess("HANDLER", "All handlers initialized")

	// Kafka notification entry path, next to the webhook
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Kafka.MockMode {
		consumer, err := kafka.NewNotificationConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create Kafka consumer: "+err.Error())
		}
		defer consumer.Close()

		go func() {
			log.LogKafka("START", "psp-notifications", "Starting Kafka consumer goroutine")
			err := consumer.ConsumeNotifications(ctx, func(n *models.NotificationMessage) error {
				_, err := reconciler.ProcessNotification(ctx, n.ResourceID)
				return err
			})
			if err != nil && err != context.Canceled {
				log.Error("KAFKA", "Consumer error: "+err.Error())
			}
		}()
	}

	router := setupRouter(webhookHandler, reconciliationHandler, store)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on "+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Payment Reconciler shutdown completed")
}

func setupRouter(webhookHandler *handlers.WebhookHandler, reconciliationHandler *handlers.ReconciliationHandler, store *storage.MySQLStore) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders(log))
	router.Use(middleware.RateLimit(log, 100))
	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := store.HealthCheck(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "payment-reconciler",
			"version":   "1.0.0",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// PSP-facing webhook
	router.POST("/webhook", webhookHandler.HandleNotification)

	// Operator API
	v1 := router.Group("/api/v1")
	{
		v1.POST("/reconcile", reconciliationHandler.Reconcile)
		v1.GET("/reconciliations/:resource_id", reconciliationHandler.ListRecords)
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
