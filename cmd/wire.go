package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/repositories"
	"github.com/desertthunder/moodmix/internal/services"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/desertthunder/moodmix/internal/tasks"
)

// buildEngine wires the pipeline described by config. The returned closers must run
// even when err is non-nil.
func buildEngine(ctx context.Context, config *shared.Config, logger *log.Logger) (*tasks.Engine, []func(), error) {
	var closers []func()

	store, closeStore, err := openStore(ctx, config, logger)
	if err != nil {
		return nil, closers, err
	}
	closers = append(closers, closeStore)

	spotify := config.Credentials.Spotify
	var catalog services.Catalog
	catalog, err = services.NewSpotifyCatalog(ctx, services.SpotifyOpts{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		TokenURL:     spotify.TokenURL,
		APIURL:       spotify.APIURL,
		Timeout:      config.Catalog.SearchTimeout(),
	})
	if err != nil {
		return nil, closers, err
	}

	gemini := config.Credentials.Gemini
	generator, err := services.NewGeminiService(ctx, services.GeminiOpts{
		APIKey:   gemini.APIKey,
		Model:    gemini.Model,
		Endpoint: gemini.Endpoint,
		HTTPClient: &http.Client{
			Timeout:   config.Server.Timeout(),
			Transport: http.DefaultTransport,
		},
	})
	if err != nil {
		return nil, closers, err
	}

	var notifier services.Notifier
	if config.Redis.URL != "" {
		rdb, err := services.NewRedisClient(ctx, config.Redis.URL)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, func() { rdb.Close() })

		if ttl := config.Catalog.CacheExpiry(); ttl > 0 {
			catalog = services.NewCachedCatalog(catalog, rdb, ttl, shared.WithLogger(logger, "component", "cache"))
		}
		channel := config.Redis.Channel
		if channel == "" {
			channel = services.DefaultEventChannel
		}
		notifier = services.NewRedisNotifier(rdb, channel, shared.WithLogger(logger, "component", "notifier"))
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Generator: generator,
		Catalog:   catalog,
		Store:     store,
		Notifier:  notifier,
		Logger:    logger,
		Aggregator: tasks.AggregatorOpts{
			PerTermLimit: config.Catalog.PerTermLimit,
			Workers:      config.Catalog.Workers,
			RateLimit:    config.Catalog.RateLimit,
		},
	})

	logger.Debug("engine ready",
		"driver", config.Database.Driver, "generator", generator.Name(), "redis", config.Redis.URL != "")
	return engine, closers, nil
}

// openStore opens the playlist store selected by database.driver and brings its schema up to date.
func openStore(ctx context.Context, config *shared.Config, logger *log.Logger) (tasks.PlaylistStore, func(), error) {
	switch config.Database.Driver {
	case "postgres":
		pool, err := repositories.NewPostgresPool(ctx, config.Database.DSN)
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewPostgresPlaylistRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		return repo, repo.Close, nil
	case "", "sqlite":
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

		applied, err := shared.RunMigrations(db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		if applied > 0 {
			logger.Info("applied migrations", "count", applied, "path", config.Database.Path)
		}
		return repositories.NewPlaylistRepository(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, config.Database.Driver)
	}
}
