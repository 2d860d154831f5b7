package main

import (
	"alcyxob/fitness-social/internal/api"
	"alcyxob/fitness-social/internal/config"
	"alcyxob/fitness-social/internal/identity"
	"alcyxob/fitness-social/internal/logging"
	"alcyxob/fitness-social/internal/metrics"
	"alcyxob/fitness-social/internal/repository"
	"alcyxob/fitness-social/internal/repository/memory"
	"alcyxob/fitness-social/internal/repository/mongo"
	"alcyxob/fitness-social/internal/service"
	"alcyxob/fitness-social/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
)

// @title Fitness Social API
// @version 1.0
// @description Profiles, workouts with sets, and a public feed with likes, comments and saves.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity provider's session token.
func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// run wires the server and blocks until a shutdown signal or a listener
// failure. Deferred cleanups run on every return path.
func run() error {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   cfg.Log.Stdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Info("starting fitness social server ...")

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsManager := metrics.NewManager("fitness", "server", registry)

	// --- Repositories ---
	var (
		userRepo    repository.UserRepository
		workoutRepo repository.WorkoutRepository
		feedRepo    repository.FeedRepository
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using the in-memory store, data is lost on restart")
		store := memory.New()
		userRepo, workoutRepo, feedRepo = store, store, store
	case config.DriverMongo:
		dbClient, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return fmt.Errorf("connect to MongoDB: %w", err)
		}
		defer func() {
			log.Info("disconnecting MongoDB ...")
			if err := mongo.DisconnectDB(dbClient); err != nil {
				log.Errorf("failed to disconnect MongoDB: %v", err)
			}
		}()
		appDB := dbClient.Database(cfg.Database.Name)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
				log.Errorf("ensure user indexes: %v", err)
				return
			}
			log.Debug("user indexes ensured")
		}()

		userRepo = mongo.NewMongoUserRepository(appDB)
		workoutRepo = mongo.NewMongoWorkoutRepository(appDB)
		feedRepo = mongo.NewMongoFeedRepository(appDB)
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	// --- Avatar sources ---
	var files storage.FileStorage
	if cfg.S3.BucketName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		files, err = storage.NewS3Storage(ctx, cfg.S3)
		cancel()
		if err != nil {
			return fmt.Errorf("initialize S3 storage: %w", err)
		}
	} else {
		log.Warn("s3.bucket_name is empty, avatar uploads are disabled")
	}

	var images service.ProfileImageProvider
	if cfg.Identity.BaseURL != "" {
		images = identity.NewClient(
			cfg.Identity.BaseURL,
			cfg.Identity.APIKey,
			cfg.Identity.CacheSizeMB,
			cfg.Identity.CacheTTL,
			&http.Client{Timeout: cfg.Identity.Timeout},
		)
	}
	avatars := service.NewAvatarResolver(files, images, cfg.Identity.PlaceholderURL, cfg.S3.URLExpiry, metricsManager)

	// --- Services ---
	services := api.Services{
		Profiles: service.NewProfileService(userRepo, files, service.AvatarStorageConfig{
			Prefix:    cfg.S3.AvatarPrefix,
			URLExpiry: cfg.S3.URLExpiry,
		}),
		Workouts: service.NewWorkoutService(userRepo, workoutRepo),
		Social:   service.NewSocialService(userRepo, workoutRepo, metricsManager),
		Feed: service.NewFeedService(feedRepo, avatars, service.FeedConfig{
			DefaultPageSize:   cfg.Feed.DefaultPageSize,
			MaxPageSize:       cfg.Feed.MaxPageSize,
			EnrichConcurrency: cfg.Feed.EnrichConcurrency,
		}),
		Avatars: avatars,
	}

	// --- Router ---
	if err := api.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(api.RequestLogger(), api.Recovery(metricsManager), api.RequestMetrics(metricsManager))
	api.SetupRoutes(router, cfg.Auth.JWTSecret, registry, services)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case receivedSig := <-quit:
		log.Warnf("signal [%s] received, shutting down ...", receivedSig)
	case err := <-serverErr:
		return fmt.Errorf("listen and serve: %w", err)
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exiting")
	return nil
}
