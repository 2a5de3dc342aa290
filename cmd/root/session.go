package root

import (
	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/cli"
)

func newSessionCmd(root *rootFlags) *cobra.Command {
	var (
		flags  productFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Show the current session",
		Long: `Print the current session, or start one if none is active. A session
lasts ten minutes from its start; joining it does not extend it.`,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := root.openReporter(&flags)
			if err != nil {
				return err
			}
			defer r.Close()

			out := cli.NewPrinter(cmd.OutOrStdout())
			session, ok := r.client.ResolveSession(cmd.Context())
			if !ok {
				out.Println("analytics is disabled")
				return nil
			}
			if asJSON {
				return out.PrintJSON(session)
			}
			out.PrintFields(
				cli.Field{Label: "product", Value: r.client.Identity().ProductUUID},
				cli.Field{Label: "session", Value: session.UUID},
				cli.Field{Label: "started", Value: session.StartTime.String()},
			)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as stored in the cache")

	return cmd
}
