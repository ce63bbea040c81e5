package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/shabbat-clock/internal/infrastructure/config"
	"github.com/nerrad567/shabbat-clock/internal/infrastructure/logging"
	"github.com/nerrad567/shabbat-clock/internal/radio"
)

func newRadioCmd(configPath *string) *cobra.Command {
	radioCmd := &cobra.Command{
		Use:   "radio",
		Short: "Lock-sync radio tools",
	}

	var connection string
	send := &cobra.Command{
		Use:       "send <shabbat|week>",
		Short:     "Send one lock command to the paired unit and wait for its ACK",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(radio.CommandLock), string(radio.CommandUnlock)},
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := radio.ParseCommand(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(resolveConfigPath(*configPath))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if connection != "" {
				cfg.Radio.Connection = connection
			}

			log := logging.New(cfg.Logging, version)
			proto, link, err := openRadio(cmd.Context(), cfg.Radio, log)
			if err != nil {
				return err
			}
			defer link.Close() //nolint:errcheck // one-shot command, nothing to recover

			result, err := proto.Exchange(command)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s after %s (drained %d, response %q)\n",
				result.Command, result.State, result.Elapsed, result.Drained, result.Response)
			return err
		},
	}
	send.Flags().StringVar(&connection, "connection", "", "override radio.connection (serial://, tcp:// or unix:// URL)")

	radioCmd.AddCommand(send)
	return radioCmd
}
