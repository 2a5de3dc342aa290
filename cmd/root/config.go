package root

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/cli"
	"github.com/wp-poweranalytics/power-analytics/pkg/userconfig"
)

func newConfigCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long:  "View and manage user-level power-analytics configuration stored in ~/.config/power-analytics/config.yaml",
		Example: `  # Show the current configuration
  power-analytics config show

  # Report for a product
  power-analytics config set product.uuid 3f2b6c1e-8d4a-4b7e-9c1d-2a5e6f7a8b9c

  # Share sessions through badger instead of sqlite
  power-analytics config set cache.backend badger`,
		GroupID: "advanced",
		RunE:    root.runConfigShowCommand,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		Long:  "Display the current user configuration in YAML format",
		Args:  cobra.NoArgs,
		RunE:  root.runConfigShowCommand,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE:  root.runConfigGetCommand,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Long:  "Set one configuration value. An empty value clears it.\n\nKeys: " + strings.Join(userconfig.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE:  root.runConfigSetCommand,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the path to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := root.configPath
			if path == "" {
				path = userconfig.Path()
			}
			cli.NewPrinter(cmd.OutOrStdout()).Println(path)
			return nil
		},
	})

	return cmd
}

func (f *rootFlags) runConfigShowCommand(cmd *cobra.Command, _ []string) error {
	config, err := f.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := yaml.MarshalWithOptions(config, yaml.IndentSequence(true), yaml.UseSingleQuote(false))
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	cli.NewPrinter(cmd.OutOrStdout()).Print(string(data))
	return nil
}

func (f *rootFlags) runConfigGetCommand(cmd *cobra.Command, args []string) error {
	config, err := f.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := config.Get(args[0])
	if err != nil {
		return err
	}
	cli.NewPrinter(cmd.OutOrStdout()).Println(value)
	return nil
}

func (f *rootFlags) runConfigSetCommand(cmd *cobra.Command, args []string) error {
	config, err := f.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := f.saveConfig(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
