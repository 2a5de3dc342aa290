package root

import (
	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/cli"
)

func newSnapshotCmd(root *rootFlags) *cobra.Command {
	var flags productFlags

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the installation snapshot",
		Long: `Print the snapshot payload that would be sent for this installation,
without sending it and without touching the dedup window.`,
		Example: `  power-analytics snapshot --manifest ./host.yaml --product-path /var/www/html/wp-content/plugins/power-forms/power-forms.php`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := root.openReporter(&flags)
			if err != nil {
				return err
			}
			defer r.Close()

			snapshot := r.client.BuildSnapshot(cmd.Context())
			return cli.NewPrinter(cmd.OutOrStdout()).PrintJSON(snapshot)
		},
	}

	flags.register(cmd)

	return cmd
}
