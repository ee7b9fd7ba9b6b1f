// Package main is the contribtracker entry point. It ingests drupal.org and
// GitHub contributions of tracked users into SQLite and announces new ones.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	httphandler "github.com/ericfisherdev/contribtracker/internal/adapter/driving/http"
	"github.com/ericfisherdev/contribtracker/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "contribtracker",
		Short:         "Track drupal.org and GitHub contributions of an organization's members",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the scheduler and HTTP API until interrupted (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Process every active user on every source once and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runOnce(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "sync-users [file]",
			Short: "Upsert the YAML user roster into the database and exit",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				return syncUsersOnly(cmd.Context(), path)
			},
		},
	)

	return cmd
}

// setup loads configuration, configures logging and wires the application.
// The returned context is canceled on SIGINT or SIGTERM.
func setup(parent context.Context) (context.Context, *config.Config, *app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"redis", cfg.UsesRedis(),
		"github", cfg.HasGitHubCredentials(),
	)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	a, err := wire(ctx, cfg)
	if err != nil {
		stop()
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		a.close()
		stop()
	}
	return ctx, cfg, a, cleanup, nil
}

func serve(parent context.Context) error {
	ctx, cfg, a, cleanup, err := setup(parent)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.UsersFile != "" {
		if err := syncUsers(ctx, a.users, cfg.UsersFile); err != nil {
			return err
		}
	}

	go a.worker.Start(ctx)

	apiHandler := httphandler.NewHandler(a.db, a.contributions, a.users, a.worker, a.metrics.Handler(), slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("contribtracker started", "sources", a.sourceNames())

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func runOnce(parent context.Context) error {
	ctx, cfg, a, cleanup, err := setup(parent)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.UsersFile != "" {
		if err := syncUsers(ctx, a.users, cfg.UsersFile); err != nil {
			return err
		}
	}

	return a.worker.RunAll(ctx)
}

func syncUsersOnly(parent context.Context, path string) error {
	ctx, cfg, a, cleanup, err := setup(parent)
	if err != nil {
		return err
	}
	defer cleanup()

	if path == "" {
		path = cfg.UsersFile
	}
	if path == "" {
		return errors.New("no users file given and CONTRIBTRACKER_USERS_FILE is unset")
	}
	return syncUsers(ctx, a.users, path)
}
