package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hamed0406/climatewatch/internal/config"
	"github.com/hamed0406/climatewatch/internal/daemon"
	"github.com/hamed0406/climatewatch/internal/version"
)

var (
	// configPath to the YAML settings file; a missing file means env and defaults only.
	configPath string
	// listenAddr overrides the configured API address.
	listenAddr string

	rootCmd = &cobra.Command{
		Use:   "climated",
		Short: "Indoor climate monitor with outdoor correlation and chat alerts.",
		Long: `climated samples an indoor temperature/humidity sensor, keeps an outdoor
weather snapshot fresh, and sends a chat alert when a threshold is crossed
and a recovery message when readings return to normal.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor loop and the HTTP API.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return daemon.Run(ctx, daemon.Options{ConfigPath: configPath, Addr: listenAddr})
		},
	}
)

// Execute runs the climated CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCommand(rootCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	serveCmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "listen address, overrides config")
}
