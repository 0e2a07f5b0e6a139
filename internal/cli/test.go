package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/titanhq/notifier/pkg/notifications"
)

func newTestCmd(root *rootOptions) *cobra.Command {
	var channel, recipient, message string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification on one channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := notifications.ParseChannel(channel)
			if err != nil {
				return err
			}

			rt, err := setup(cmd.Context(), root.envFiles, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.dispatcher.TestNotification(cmd.Context(), ch, recipient, message)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&channel, "channel", "c", "", "email, telegram, sms or inapp")
	cmd.Flags().StringVarP(&recipient, "recipient", "r", "", "override the configured recipient")
	cmd.Flags().StringVarP(&message, "message", "m", "", "custom message body")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
