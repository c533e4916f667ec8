package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/moodmix/internal/repositories"
	"github.com/desertthunder/moodmix/internal/server"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase creates the config file from the embedded template when missing, then
// brings the configured store's schema up to date.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if config.Database.Driver == "postgres" {
		r.logger.Info("initializing postgres schema")
		pool, err := repositories.NewPostgresPool(ctx, config.Database.DSN)
		if err != nil {
			return err
		}
		repo := repositories.NewPostgresPlaylistRepository(pool)
		defer repo.Close()

		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		r.logger.Info("setup complete for postgres")
		return nil
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	applied, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v (%d migrations applied)", config.Database.Path, applied)
	return nil
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	auth, err := server.NewAuthenticator(config.Auth.JWTSecret, config.Auth.Issuer)
	if err != nil {
		return err
	}

	engine, err := r.load(ctx, cmd)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Addr:         config.Server.Addr(),
		Timeout:      config.Server.Timeout(),
		MaxBodyBytes: config.Server.MaxBodyBytes,
		Pipeline:     engine,
		Auth:         auth,
		Logger:       shared.WithLogger(r.logger, "component", "http"),
	})
	return srv.Run(ctx, cmd.Duration("grace"))
}

// Token mints a bearer token whose subject is --user.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	auth, err := server.NewAuthenticator(config.Auth.JWTSecret, config.Auth.Issuer)
	if err != nil {
		return err
	}

	ttl := cmd.Duration("ttl")
	token, err := auth.Mint(cmd.String("user"), ttl)
	if err != nil {
		return err
	}

	r.logger.Debug("token minted", "user", cmd.String("user"), "ttl", ttl)
	return r.writePlainln("%s", token)
}
