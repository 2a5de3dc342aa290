package root

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/analytics"
	"github.com/wp-poweranalytics/power-analytics/pkg/cli"
)

type runFlags struct {
	product productFlags
	noWait  bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [name[=value]]...",
		Short: "Report a snapshot and a batch of events",
		Long: `Run one full analytics lifecycle: send the installation snapshot unless one
was sent in the last six hours, join or start the current session, track
each event given as an argument and flush them as a single batch.

Event values that parse as JSON are sent as JSON, anything else as a string.`,
		Example: `  power-analytics run form_submitted='{"form_id":42}'
  power-analytics run --product-uuid 3f2b6c1e-8d4a-4b7e-9c1d-2a5e6f7a8b9c settings_opened`,
		GroupID: "core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.runRunCommand(cmd, &flags, args)
		},
	}

	flags.product.register(cmd)
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "Exit without waiting for in-flight requests")

	return cmd
}

func (f *rootFlags) runRunCommand(cmd *cobra.Command, flags *runFlags, args []string) error {
	type event struct {
		name  string
		value any
	}
	events := make([]event, 0, len(args))
	for _, arg := range args {
		name, value, err := parseEvent(arg)
		if err != nil {
			return err
		}
		events = append(events, event{name, value})
	}

	r, err := f.openReporter(&flags.product)
	if err != nil {
		return err
	}
	defer r.Close()

	out := cli.NewPrinter(cmd.OutOrStdout())
	if !r.client.IsEnabled() {
		slog.Debug("Analytics disabled, nothing to report")
		out.Println("analytics is disabled")
		return nil
	}

	var client *analytics.Client
	err = analytics.Scope(cmd.Context(), r.identity, func(ctx context.Context, c *analytics.Client) error {
		client = c
		for _, e := range events {
			analytics.Track(ctx, e.name, e.value)
			out.PrintEvent(e.name, e.value)
		}
		return nil
	}, r.opts...)
	if err != nil {
		return err
	}

	if !flags.noWait {
		client.Wait()
	}
	r.logMetrics()

	if session, ok := client.Session(); ok {
		out.PrintFields(
			cli.Field{Label: "session", Value: session.UUID},
			cli.Field{Label: "started", Value: session.StartTime.String()},
		)
	}
	return nil
}
