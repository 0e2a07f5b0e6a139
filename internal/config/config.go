// Package config assembles the notifier's runtime configuration from the
// environment and an optional .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"

	pkgconfig "github.com/titanhq/notifier/pkg/config"
	"github.com/titanhq/notifier/pkg/httpserver"
	"github.com/titanhq/notifier/pkg/kv"
	"github.com/titanhq/notifier/pkg/logger"
	"github.com/titanhq/notifier/pkg/notifications"
	"github.com/titanhq/notifier/pkg/pg"
)

type App struct {
	Name      string `env:"APP_NAME" envDefault:"titan-notifier"`
	Env       string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL"`  // Overrides the environment preset.
	LogFormat string `env:"LOG_FORMAT"` // json or text; overrides the preset.
}

type Config struct {
	App           App
	HTTP          httpserver.Config
	Redis         kv.Config
	Postgres      pg.Config
	Notifications notifications.Config
}

// Load reads envFiles (./.env when none are given) and parses the process
// environment.
func Load(envFiles ...string) (Config, error) {
	if err := pkgconfig.LoadEnv(envFiles...); err != nil {
		return Config{}, err
	}
	return Parse()
}

// Parse builds a Config from the process environment, or from vars when given.
func Parse(opts ...pkgconfig.Option) (Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger builds the process logger from the App section.
func (c Config) Logger(w io.Writer, extractors ...logger.ContextExtractor) (*slog.Logger, error) {
	opts := []logger.Option{
		logger.WithOutput(w),
		logger.WithEnvironment(c.App.Env, c.App.Name),
		logger.WithContextExtractors(extractors...),
	}
	if c.App.LogLevel != "" {
		lvl, err := logger.ParseLevel(c.App.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, logger.WithLevel(lvl))
	}
	if c.App.LogFormat != "" {
		f := logger.Format(c.App.LogFormat)
		if f != logger.FormatJSON && f != logger.FormatText {
			return nil, fmt.Errorf("invalid log format %q", c.App.LogFormat)
		}
		opts = append(opts, logger.WithFormat(f))
	}
	return logger.New(opts...), nil
}
