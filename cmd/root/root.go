package root

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wp-poweranalytics/power-analytics/pkg/logging"
	"github.com/wp-poweranalytics/power-analytics/pkg/paths"
	"github.com/wp-poweranalytics/power-analytics/pkg/userconfig"
)

const AppName = "power-analytics"

type rootFlags struct {
	enableOtel  bool
	debugMode   bool
	logFilePath string
	configPath  string
	logFile     io.Closer
	shutdown    func(context.Context) error
}

// loadConfig reads the file named by --config, or the default location.
func (f *rootFlags) loadConfig() (*userconfig.Config, error) {
	if f.configPath != "" {
		return userconfig.LoadFrom(f.configPath)
	}
	return userconfig.Load()
}

func (f *rootFlags) saveConfig(cfg *userconfig.Config) error {
	return cfg.SaveTo(cmp.Or(f.configPath, userconfig.Path()))
}

func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "power-analytics - usage analytics for WordPress products",
		Long:  "power-analytics reports installation snapshots and usage events for a WordPress plugin or theme",
		Example: `  power-analytics snapshot --manifest ./host.yaml
  power-analytics run form_submitted='{"form_id":42}' settings_opened
  power-analytics session`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.setupLogging(); err != nil {
				slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), flags.debugMode))
			}

			if flags.enableOtel {
				shutdown, err := initOTelSDK(cmd.Context())
				if err != nil {
					slog.Warn("Failed to initialize OpenTelemetry SDK", "error", err)
				} else {
					flags.shutdown = shutdown
					slog.Debug("OpenTelemetry SDK initialized successfully")
				}
			}

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if flags.shutdown != nil {
				if err := flags.shutdown(context.WithoutCancel(cmd.Context())); err != nil {
					slog.Warn("Failed to flush traces", "error", err)
				}
			}
			if flags.logFile != nil {
				if err := flags.logFile.Close(); err != nil {
					slog.Error("Failed to close log file", "error", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.debugMode, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.enableOtel, "otel", "o", false, "Enable OpenTelemetry tracing")
	cmd.PersistentFlags().StringVar(&flags.logFilePath, "log-file", "", "Path to debug log file (default: ~/.power-analytics/power-analytics.debug.log; only used with --debug)")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to the config file (default: ~/.config/power-analytics/config.yaml)")

	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "advanced", Title: "Advanced Commands:"})

	cmd.AddCommand(newRunCmd(&flags))
	cmd.AddCommand(newSnapshotCmd(&flags))
	cmd.AddCommand(newSessionCmd(&flags))
	cmd.AddCommand(newConfigCmd(&flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func Execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return processErr(ctx, err, stderr, rootCmd)
	}
	return nil
}

func processErr(ctx context.Context, err error, stderr io.Writer, rootCmd *cobra.Command) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	fmt.Fprintln(stderr, err)
	if usageErr(err) {
		fmt.Fprintln(stderr)
		_ = rootCmd.Usage()
	}
	return err
}

func usageErr(err error) bool {
	var identityErr *MissingIdentityError
	if errors.As(err, &identityErr) {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "accepts ")
}

// setupLogging configures slog logging behavior.
// When --debug is enabled, logs are written to a rotating file <dataDir>/power-analytics.debug.log,
// or to the file specified by --log-file. Log files are rotated when they exceed
// log_max_size from the config (10MB by default), keeping up to 3 backup files.
func (f *rootFlags) setupLogging() error {
	if !f.debugMode {
		slog.SetDefault(logging.NewLogger(nil, false))
		return nil
	}

	path := cmp.Or(strings.TrimSpace(f.logFilePath), filepath.Join(paths.GetDataDir(), AppName+".debug.log"))

	var opts []logging.Option
	if cfg, err := f.loadConfig(); err == nil && cfg.LogMaxSizeBytes() > 0 {
		opts = append(opts, logging.WithMaxSize(cfg.LogMaxSizeBytes()))
	}

	logFile, err := logging.NewRotatingFile(path, opts...)
	if err != nil {
		return err
	}
	f.logFile = logFile

	slog.SetDefault(logging.NewLogger(logFile, true))
	return nil
}
