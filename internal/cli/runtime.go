package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/titanhq/notifier/internal/config"
	"github.com/titanhq/notifier/pkg/archive"
	"github.com/titanhq/notifier/pkg/clientip"
	"github.com/titanhq/notifier/pkg/httpserver"
	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/kv"
	"github.com/titanhq/notifier/pkg/notifications"
	"github.com/titanhq/notifier/pkg/pg"
	"github.com/titanhq/notifier/pkg/requestid"
)

const redisKeyPrefix = "titan:"

// runtime holds the wired dependencies shared by the commands.
type runtime struct {
	cfg        config.Config
	log        *slog.Logger
	dispatcher *notifications.Dispatcher
	inbox      *inapp.Inbox
	archive    *archive.Store
	checks     []httpserver.Check
	closers    []func()
}

func loadConfig(envFiles []string, logOut io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := cfg.Logger(logOut, requestid.LoggerExtractor(), clientip.LoggerExtractor())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

// loadRegistry returns the built-in templates plus those in TemplatesFile.
func loadRegistry(cfg notifications.Config) (*notifications.Registry, error) {
	reg := notifications.NewRegistry()
	if cfg.TemplatesFile == "" {
		return reg, nil
	}
	f, err := os.Open(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("open templates file: %w", err)
	}
	defer f.Close()

	tmpls, err := notifications.LoadTemplates(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.TemplatesFile, err)
	}
	reg.RegisterAll(tmpls)
	return reg, nil
}

// setup connects the configured stores and builds the dispatcher. Redis and
// Postgres are optional: without REDIS_URL the in-app inbox is kept in
// memory, without DATABASE_URL nothing is archived.
func setup(ctx context.Context, envFiles []string, logOut io.Writer) (_ *runtime, err error) {
	cfg, log, err := loadConfig(envFiles, logOut)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	var store kv.Store
	if cfg.Redis.ConnectionURL != "" {
		client, err := kv.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		rt.checks = append(rt.checks, httpserver.Check{Name: "redis", Probe: kv.Healthcheck(client)})
		store = kv.NewRedisStore(client, kv.WithKeyPrefix(redisKeyPrefix))
	} else {
		log.InfoContext(ctx, "REDIS_URL not set, in-app notifications are kept in memory")
		store = kv.NewMemoryStore()
	}
	rt.inbox = inapp.NewInbox(store)

	reg, err := loadRegistry(cfg.Notifications)
	if err != nil {
		return nil, err
	}

	opts := []notifications.Option{
		notifications.WithLogger(log),
		notifications.WithRegistry(reg),
		notifications.WithChannelBuilder(notifications.DefaultChannelBuilder(
			rt.inbox,
			&http.Client{Timeout: cfg.Notifications.SendTimeout},
		)),
	}

	if cfg.Postgres.Enabled() {
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		if err := pg.Migrate(ctx, pool, archive.Migrations, archive.MigrationsDir, cfg.Postgres, log); err != nil {
			return nil, err
		}
		rt.checks = append(rt.checks, httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)})
		rt.archive = archive.New(pool)
		opts = append(opts, notifications.WithArchive(rt.archive))
	}

	rt.dispatcher = notifications.NewDispatcher(cfg.Notifications, opts...)
	return rt, nil
}

// Close releases connections in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
