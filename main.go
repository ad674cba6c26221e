package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	_ "lndpd/modules/dryrun"
	_ "lndpd/modules/iproute2"
	"lndpd/modules/rtnetlink"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lndpd <interface> <broadcast-interface> -p <prefix>",
		Short: "Learning IPv6 neighbor discovery proxy",
		Long: `lndpd captures traffic on <interface> and, for every IPv6 source address
inside one of the configured prefixes, installs a proxy neighbor entry on
<broadcast-interface>. Hosts behind <interface> then answer neighbor
solicitations on the broadcast segment as if they were attached to it.`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCommand(cmd, args, "interface", "broadcast_interface")
			if err != nil {
				return err
			}
			return runLive(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (YAML)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file, rotated, instead of stderr")

	addProxyFlags(rootCmd, rtnetlink.Name)
	rootCmd.Flags().Duration("read-timeout", time.Second, "capture read timeout, bounds shutdown latency")
	rootCmd.Flags().Bool("promiscuous", true, "put the capture interface into promiscuous mode")
	rootCmd.Flags().Bool("ignore-outgoing", false, "ignore frames sent by this host")

	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newInterfacesCmd())
	rootCmd.AddCommand(newBackendsCmd())
	rootCmd.AddCommand(newNeighborsCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
