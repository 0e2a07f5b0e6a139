// Package cli implements the notifier command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var version = "dev"

type rootOptions struct {
	envFiles []string
}

// NewRootCmd returns the notifier command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "notifier",
		Short:         "TITAN notification dispatcher",
		Long:          "Formats trading notifications from templates and delivers them over email, Telegram, SMS and in-app channels.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "load variables from these .env files (default ./.env when present)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSendCmd(opts))
	cmd.AddCommand(newTestCmd(opts))
	cmd.AddCommand(newTemplatesCmd(opts))
	return cmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
