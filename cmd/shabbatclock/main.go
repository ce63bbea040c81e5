// Shabbat clock - weekly relay scheduler with remote lock sync.
//
// The binary runs the scheduling engine and its HTTP API (serve), and offers
// a one-shot lock-sync exchange with the paired unit for commissioning
// (radio send).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is read when it exists and no path is given.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. With no subcommand the root runs serve.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "shabbatclock",
		Short:         "Weekly relay scheduler with remote lock sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), resolveConfigPath(configPath))
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file (default $SHABBATCLOCK_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newServeCmd(&configPath),
		newRadioCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), resolveConfigPath(*configPath))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shabbatclock %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// resolveConfigPath picks the flag, then SHABBATCLOCK_CONFIG, then the
// default path if it exists. An empty result means built-in defaults.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if path := os.Getenv("SHABBATCLOCK_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
