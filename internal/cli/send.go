package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/titanhq/notifier/pkg/notifications"
)

func newSendCmd(root *rootOptions) *cobra.Command {
	var (
		typ      string
		priority string
		channels []string
		data     map[string]string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Format and deliver a single notification",
		Example: `  notifier send --type price_alert --priority medium \
    --data symbol=BTC --data currentPrice=50000 --data target=49000 --data direction=above`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			chs := make([]notifications.Channel, 0, len(channels))
			for _, c := range channels {
				ch, err := notifications.ParseChannel(c)
				if err != nil {
					return err
				}
				chs = append(chs, ch)
			}

			rt, err := setup(ctx, root.envFiles, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			values := make(map[string]any, len(data))
			for k, v := range data {
				values[k] = v
			}

			msg, err := rt.dispatcher.Send(ctx, notifications.Type(typ), values, notifications.Priority(priority), chs...)
			if err != nil {
				return err
			}
			if !msg.Settled() {
				if msg, err = rt.dispatcher.ProcessNotification(ctx, msg.ID); err != nil {
					return err
				}
			}

			if err := printJSON(cmd.OutOrStdout(), msg); err != nil {
				return err
			}
			if msg.Status != notifications.StatusSent {
				return fmt.Errorf("notification %s is %s", msg.ID, msg.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "template type, see `notifier templates`")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(notifications.PriorityMedium), "low, medium, high or critical")
	cmd.Flags().StringSliceVarP(&channels, "channel", "c", nil, "channels to use (default depends on priority)")
	cmd.Flags().StringToStringVarP(&data, "data", "d", nil, "template variables as key=value")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
