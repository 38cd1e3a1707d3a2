package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/config"
	"github.com/Pauline-WN/AjaliApp/internal/janitor"
	"github.com/Pauline-WN/AjaliApp/internal/repository"
	"github.com/Pauline-WN/AjaliApp/internal/server"
	"github.com/Pauline-WN/AjaliApp/internal/service"
	"github.com/Pauline-WN/AjaliApp/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Database connection
	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Blob storage
	var (
		blobs storage.BlobStore
		local *storage.LocalStore
	)
	switch cfg.Uploads.Backend {
	case config.StorageCloudinary:
		blobs, err = storage.NewCloudinaryStore(cfg.Uploads.CloudinaryURL, cfg.Uploads.CloudinaryFolder, logger)
	default:
		local, err = storage.NewLocalStore(cfg.Uploads.Dir, logger)
		blobs = local
	}
	if err != nil {
		logger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}
	logger.Info("Blob storage ready", zap.String("backend", cfg.Uploads.Backend))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, logger)
	sessionRepo := repository.NewSessionRepository(db, logger)
	incidentRepo := repository.NewIncidentRepository(db, logger)
	mediaRepo := repository.NewMediaRepository(db, logger)

	services := server.Services{
		Auth:      service.NewAuthService(userRepo, sessionRepo, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger),
		Incidents: service.NewIncidentService(incidentRepo, blobs, logger),
		Media:     service.NewMediaService(incidentRepo, mediaRepo, blobs, cfg.Uploads.MaxBytes, logger),
		Uploads:   local,
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !cfg.Janitor.Disabled {
		var lister janitor.BlobLister
		if local != nil {
			lister = local
		}
		j, err := janitor.New(janitor.Config{
			SessionPurgeSpec: cfg.Janitor.SessionPurgeSpec,
			OrphanSweepSpec:  cfg.Janitor.OrphanSweepSpec,
			OrphanGrace:      cfg.Janitor.OrphanGrace,
		}, sessionRepo, mediaRepo, lister, logger)
		if err != nil {
			logger.Fatal("Failed to initialize janitor", zap.Error(err))
		}
		go j.Run(ctx)
	}

	if err := server.CheckTestUser(ctx, cfg, services.Auth); err != nil {
		// The user may still register after startup.
		logger.Warn("Authentication bypass user missing; register it before creating incidents", zap.Error(err))
	}

	// Initialize and run the server
	srv := server.NewServer(cfg, services, logger)
	if err := srv.Run(ctx, cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}

	logger.Info("Application stopped.")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
