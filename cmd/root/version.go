package root

import (
	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/cli"
	"github.com/wp-poweranalytics/power-analytics/pkg/useragent"
	"github.com/wp-poweranalytics/power-analytics/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print the version information",
		Long:    `Display the version, commit hash and the User-Agent sent to the ingestion endpoint`,
		GroupID: "advanced",
		Args:    cobra.NoArgs,
		Run:     runVersionCommand,
	}
}

func runVersionCommand(cmd *cobra.Command, _ []string) {
	out := cli.NewPrinter(cmd.OutOrStdout())

	out.Printf("%s version %s\n", AppName, version.Version)
	out.Printf("Commit: %s\n", version.Commit)
	out.Printf("User-Agent: %s\n", useragent.Header)
}
