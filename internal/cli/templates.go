package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/titanhq/notifier/internal/config"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List registered notification templates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.envFiles...)
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg.Notifications)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tTITLE\tVARIABLES")
			for _, typ := range reg.Types() {
				t, err := reg.Lookup(typ)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", typ, t.Title, strings.Join(t.Variables, ", "))
			}
			return tw.Flush()
		},
	}
}
