// Package app assembles the stores, pipeline, probe and services from
// configuration. It is shared by the server and the photoctl CLI.
package app

import (
	"alcyxob/dating-app/internal/config"
	"alcyxob/dating-app/internal/health"
	"alcyxob/dating-app/internal/ratelimit"
	"alcyxob/dating-app/internal/repository"
	"alcyxob/dating-app/internal/repository/mongo"
	"alcyxob/dating-app/internal/repository/postgres"
	"alcyxob/dating-app/internal/sanitize"
	"alcyxob/dating-app/internal/service"
	"alcyxob/dating-app/internal/storage"
	"alcyxob/dating-app/internal/upload"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const rateLimitOwners = 10_000

// App holds the wired components. Close releases database connections.
type App struct {
	Config   config.Config
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Store    storage.ObjectStore
	Pipeline *upload.Pipeline
	Prober   *health.Prober
	Auth     service.AuthService
	Photos   service.PhotoService
	Registry *prometheus.Registry

	closers []func() error
}

// New connects to the configured database and object store and wires the services.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	if err := a.openDatabase(ctx, log); err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	observer, err := storage.NewPrometheusObserver("photo_storage", a.Registry)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = storage.Instrument(store, observer)

	uploadMetrics, err := upload.NewMetrics(a.Registry)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Pipeline, err = upload.New(a.Store, upload.ConfigFrom(cfg.Upload),
		upload.WithLogger(log), upload.WithMetrics(uploadMetrics))
	if err != nil {
		a.Close()
		return nil, err
	}

	healthMetrics, err := health.NewMetrics(a.Registry)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Prober = health.NewProber(a.Store, cfg.Health.Owner, health.WithLogger(log), health.WithMetrics(healthMetrics))

	limiterStore, err := ratelimit.NewLRUStore(rateLimitOwners)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.JWT.Secret != "" {
		a.Auth = service.NewAuthService(a.Users, cfg.JWT.Secret, cfg.JWT.Expiration)
	}
	a.Photos = service.NewPhotoService(service.PhotoServiceConfig{
		Profiles:  a.Profiles,
		Uploader:  a.Pipeline,
		Store:     a.Store,
		Health:    a.Prober,
		Limiter:   ratelimit.New(limiterStore, cfg.Upload.RateLimit, cfg.Upload.RateWindow),
		Sanitizer: sanitize.New(500),
		MaxPhotos: cfg.Upload.MaxPhotos,
		Logger:    log,
	})
	return a, nil
}

func (a *App) openDatabase(ctx context.Context, log zerolog.Logger) error {
	cfg := a.Config.Database
	switch cfg.Driver {
	case "mongo", "":
		client, err := mongo.ConnectDB(ctx, cfg.URI)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, func() error { return mongo.DisconnectDB(client) })
		db := client.Database(cfg.Name)

		indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(indexCtx, db); err != nil {
			log.Warn().Err(err).Msg("ensuring mongo indexes failed")
		}
		a.Users = mongo.NewMongoUserRepository(db)
		a.Profiles = mongo.NewMongoProfileRepository(db)
	case "postgres":
		if err := postgres.Migrate(cfg.URI); err != nil {
			return err
		}
		pool, err := postgres.Connect(ctx, cfg.URI)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.Users = postgres.NewUserRepository(pool)
		a.Profiles = postgres.NewProfileRepository(pool)
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	log.Info().Str("driver", cfg.Driver).Msg("database connected")
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
