package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/latoulicious/arise-companion/internal/config"
	"github.com/latoulicious/arise-companion/internal/server"
	"github.com/latoulicious/arise-companion/internal/version"
	"github.com/latoulicious/arise-companion/pkg/activity"
	"github.com/latoulicious/arise-companion/pkg/auth"
	"github.com/latoulicious/arise-companion/pkg/builds"
	"github.com/latoulicious/arise-companion/pkg/catalog"
	"github.com/latoulicious/arise-companion/pkg/dashboard"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/migration"
	"github.com/latoulicious/arise-companion/pkg/database/repository"
	"github.com/latoulicious/arise-companion/pkg/jobs"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/latoulicious/arise-companion/pkg/storage"
	"github.com/latoulicious/arise-companion/pkg/tierlist"
	"gorm.io/gorm"
)

func main() {
	if err := initializeApplication(); err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}
}

// initializeApplication wires every service, serves HTTP and blocks until a
// termination signal
func initializeApplication() error {
	// .env might not exist in production
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewGormDBFromConfig(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	defer sqlDB.Close()

	if err := migration.RunMigration(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logs := initializeLogging(cfg, db)
	logger := logs.CreateLogger("main")
	logger.Info("Starting", map[string]interface{}{"version": version.Get().String(), "environment": cfg.Environment})

	bucket, mediaDir, err := newBucket(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize image storage: %w", err)
	}
	images := storage.NewImages(bucket, storage.ImageOptions{
		AcceptedMIME: cfg.Storage.ImageMIME,
		MaxBytes:     cfg.Storage.ImageMaxBytes,
	}, logs.CreateLogger("images"))

	recent := activity.New(cfg.Jobs.ActivityCapacity)
	cat := catalog.New(db, images, logs, recent)

	promoRepo := repository.NewPromoCodeRepository(db)
	expiry := jobs.NewPromoExpiry(promoRepo, cfg.Jobs.PromoExpirySchedule, logs.CreateLogger("jobs"))
	if err := expiry.Start(); err != nil {
		return fmt.Errorf("failed to start promo expiry job: %w", err)
	}

	authSvc, err := auth.NewService(repository.NewAdminRepository(db), auth.Config{
		Secret: []byte(cfg.Auth.SessionSecret),
		TTL:    cfg.Auth.SessionTTL,
	}, logs.CreateLogger("auth"))
	if err != nil {
		return fmt.Errorf("failed to initialize authentication: %w", err)
	}

	stats := dashboard.NewService(recent, logs.CreateLogger("dashboard")).
		Count("chasseurs", cat.Hunters).
		Count("armes", cat.Weapons).
		Count("artefacts", cat.Artifacts).
		Count("noyaux", cat.Cores).
		Count("compétences", cat.Skills).
		Count("ombres", cat.Shadows).
		Count("bonus_de_set", cat.SetBonuses).
		Count("codes_promo", cat.PromoCodes).
		Count("guides", cat.YoutubeLinks).
		Job(expiry)

	srv := server.NewServer(server.Deps{
		Catalog:     cat,
		TierLists:   tierlist.NewService(repository.NewTierListRepository(db), logs.CreateLogger("tierlist")).WithRecorder(recent),
		Builds:      builds.NewService(repository.NewBuildRepository(db), logs.CreateLogger("builds")).WithRecorder(recent),
		Promos:      promoRepo,
		Dashboard:   stats,
		Auth:        authSvc,
		PromoExpiry: expiry,
		Logs:        repository.NewLogRepository(db),
		DB:          sqlDB,
		Loggers:     logs,
	}, server.Options{
		Addr:           cfg.HTTPAddr,
		Debug:          !cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.Auth.CookieSecure,
		MediaDir:       mediaDir,
		MaxImageBytes:  cfg.Storage.ImageMaxBytes,
		MaxBodyBytes:   cfg.Storage.ImageMaxBytes + 1<<20,
		Version:        version.Get().Short(),
	})
	serveErr := srv.Start()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sc:
		logger.Info("Shutting down gracefully", nil)
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server stopped unexpectedly", err, nil)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown incomplete", err, nil)
	}
	expiry.Stop(ctx)

	logger.Info("Shutdown complete", nil)
	return nil
}

// initializeLogging installs the global logger factory, persisting entries
// to app_logs when enabled
func initializeLogging(cfg *config.Config, db *gorm.DB) logging.LoggerFactory {
	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}

	var factory logging.LoggerFactory
	if cfg.Log.Database {
		factory = logging.NewDatabaseLoggerFactory(opts, repository.NewLogRepository(db))
	} else {
		factory = logging.NewLoggerFactory(opts)
	}
	logging.SetGlobalLoggerFactory(factory)
	return factory
}

// newBucket returns the configured image backend and, for the local one, the
// directory to serve under /media
func newBucket(cfg *config.Config) (storage.Bucket, string, error) {
	switch cfg.Storage.Backend {
	case "s3":
		bucket, err := storage.NewS3(storage.S3Options{
			Endpoint:      cfg.Storage.S3Endpoint,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			Region:        cfg.Storage.S3Region,
			UseSSL:        cfg.Storage.S3UseSSL,
			PublicBaseURL: cfg.Storage.S3PublicURL,
		})
		if err != nil {
			return nil, "", err
		}
		return bucket, "", nil
	default:
		bucket, err := storage.NewLocal(cfg.Storage.LocalDir, cfg.PublicBaseURL+"/media")
		if err != nil {
			return nil, "", err
		}
		return bucket, bucket.Root(), nil
	}
}
