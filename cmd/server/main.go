package main

// @title           Collab Service API
// @version         1.0
// @description     Team collaboration backend with real-time chat and notifications
// @host            localhost:8080
// @BasePath        /api
// @schemes         http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collab-service/internal/adapters/kafka"
	"collab-service/internal/adapters/storage"
	"collab-service/internal/api/routes"
	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/services"
	"collab-service/internal/websocket"

	"github.com/IBM/sarama"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting collab server")

	redisClient, err := database.NewRedisConnection(cfg.Redis.URI)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisService := services.NewRedisService(redisClient)
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpirationTime)

	// Optional integrations. The service runs without them; chat message
	// publication and file uploads stay disabled when unset.
	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			slog.Error("Failed to connect to Kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
	}

	var files *storage.MinIOClient
	if cfg.MinIO.Enabled {
		files, err = storage.NewMinIOClient(
			cfg.MinIO.Endpoint,
			cfg.MinIO.AccessKey,
			cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket,
			cfg.MinIO.UseSSL,
		)
		if err != nil {
			slog.Error("Failed to connect to MinIO", "error", err)
			os.Exit(1)
		}
	}

	hub := websocket.NewHub()

	notifierCtx, stopNotifier := context.WithCancel(context.Background())
	defer stopNotifier()
	notifier := websocket.NewNotifierWithQueue(hub, cfg.Notification.QueueSize)
	go notifier.Run(notifierCtx)

	router := routes.NewRouter(
		hub,
		notifier,
		redisService,
		db,
		tokenService,
		producer,
		cfg.Kafka.Topic,
		files,
	)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopNotifier()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
