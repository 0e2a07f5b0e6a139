package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/titanhq/notifier/internal/api"
	"github.com/titanhq/notifier/pkg/httpserver"
	"github.com/titanhq/notifier/pkg/logger"
	"github.com/titanhq/notifier/pkg/notifications"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var flushInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the retry and queue loops",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := setup(ctx, root.envFiles, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			apiOpts := []api.Option{
				api.WithLogger(rt.log),
				api.WithInbox(rt.inbox),
				api.WithHealthChecks(rt.checks...),
			}
			if rt.archive != nil {
				apiOpts = append(apiOpts, api.WithArchive(rt.archive))
			}
			handler := api.New(rt.dispatcher, apiOpts...)
			srv := httpserver.NewFromConfig(rt.cfg.HTTP, httpserver.WithLogger(rt.log))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(ctx, handler.Router())
			})
			g.Go(func() error {
				return ignoreCancel(rt.dispatcher.RunRetries(ctx, rt.cfg.Notifications.RetryInterval))
			})
			if flushInterval > 0 {
				g.Go(func() error {
					return ignoreCancel(flushQueue(ctx, rt.dispatcher, flushInterval, rt.log))
				})
			}

			err = g.Wait()
			rt.log.InfoContext(context.WithoutCancel(ctx), "notifier stopped")
			return err
		},
	}
	cmd.Flags().DurationVar(&flushInterval, "flush-interval", 0, "deliver queued notifications on this interval (0 leaves them for POST /process-queue)")
	return cmd
}

// flushQueue calls ProcessQueue every interval until ctx is done.
func flushQueue(ctx context.Context, d *notifications.Dispatcher, interval time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := d.ProcessQueue(ctx)
			if err != nil && ctx.Err() == nil {
				log.WarnContext(ctx, "queue flush interrupted", logger.Error(err))
			}
			if n > 0 {
				log.DebugContext(ctx, "queue flushed", slog.Int("count", n))
			}
		}
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
