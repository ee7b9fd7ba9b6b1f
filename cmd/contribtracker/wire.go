package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cacheadapter "github.com/ericfisherdev/contribtracker/internal/adapter/driven/cache"
	"github.com/ericfisherdev/contribtracker/internal/adapter/driven/drupalorg"
	githubadapter "github.com/ericfisherdev/contribtracker/internal/adapter/driven/github"
	"github.com/ericfisherdev/contribtracker/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/contribtracker/internal/adapter/driven/notify"
	sqliteadapter "github.com/ericfisherdev/contribtracker/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/contribtracker/internal/application"
	"github.com/ericfisherdev/contribtracker/internal/config"
	"github.com/ericfisherdev/contribtracker/internal/domain/model"
	"github.com/ericfisherdev/contribtracker/internal/domain/port/driven"
)

// app holds the wired components shared by every command.
type app struct {
	db            *sqliteadapter.DB
	users         *sqliteadapter.UserRepo
	contributions *sqliteadapter.ContributionRepo
	metrics       *metrics.Recorder
	sources       []application.ContributionSource
	worker        *application.Worker
	closers       []io.Closer
}

func wire(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a := &app{db: db, closers: []io.Closer{db}}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		a.close()
		return nil, err
	}
	slog.Info("database ready", "path", db.Path(), "schema_version", version)

	a.users = sqliteadapter.NewUserRepo(db)
	a.contributions = sqliteadapter.NewContributionRepo(db)
	a.metrics = metrics.NewRecorder()

	var cache driven.Cache
	if cfg.UsesRedis() {
		rc, err := cacheadapter.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, rc)
		cache = rc
		slog.Info("redis cache connected", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	} else {
		cache = cacheadapter.NewMemoryCache(cacheadapter.DefaultMaxEntries)
		slog.Info("using in-process cache", "max_entries", cacheadapter.DefaultMaxEntries)
	}

	var notifier driven.Notifier
	if cfg.SlackWebhookURL != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackWebhookURL, nil)
	} else {
		notifier = notify.NewLogNotifier(slog.Default())
		slog.Info("no slack webhook configured, notifications are logged")
	}

	drupalClient, err := drupalorg.NewClient(cfg.DrupalBaseURL)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("create drupal.org client: %w", err)
	}

	storage := application.NewContributionStorage(a.contributions)
	retriever := application.NewDrupalRetriever(drupalClient, cache, cfg.CacheNS)
	a.sources = append(a.sources, application.NewDrupalSource(retriever, storage, a.users, 0, 0))

	if cfg.HasGitHubCredentials() {
		ghClient := githubadapter.NewClient(cfg.GitHubToken)
		a.sources = append(a.sources, application.NewGitHubSource(ghClient, a.users, cache, cfg.CacheNS))
	} else {
		slog.Info("no github token configured, github source disabled")
	}

	manager := application.NewContributionManager(storage, notifier, a.metrics)
	a.worker = application.NewWorker(manager, a.users, a.sources, cfg.PollInterval, cfg.QueueSize)

	return a, nil
}

func (a *app) sourceNames() []string {
	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	return names
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Error("error closing resource", "error", err)
		}
	}
}

// syncUsers upserts every roster entry. Users missing from the roster are
// left untouched.
func syncUsers(ctx context.Context, users driven.UserStore, path string) error {
	roster, err := config.LoadUsers(path)
	if err != nil {
		return err
	}

	for _, u := range roster {
		if _, err := users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("sync user %s: %w", u.Email, err)
		}
	}
	slog.Info("user roster synced", "path", path, "users", len(roster), "active", countActive(roster))
	return nil
}

func countActive(users []model.User) int {
	n := 0
	for _, u := range users {
		if u.Active {
			n++
		}
	}
	return n
}
