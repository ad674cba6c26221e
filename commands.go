package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lndpd/modules"
	"lndpd/modules/dryrun"
	"lndpd/modules/rtnetlink"
	"lndpd/pndp"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <capture-file> <broadcast-interface> -p <prefix>",
		Short: "Run the proxy over a pcap or pcapng file instead of a live interface",
		Args:  cobra.ExactArgs(2),
		// Replays only log by default
		Annotations: map[string]string{"default.backend": dryrun.Name},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCommand(cmd, args, "capture_file", "broadcast_interface")
			if err != nil {
				return err
			}
			return runReplay(cmd.Context(), cfg, cmd.ErrOrStderr())
		},
	}
	addProxyFlags(cmd, dryrun.Name)
	return cmd
}

func newInterfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List the network interfaces that can be captured on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printInterfaces(cmd.OutOrStdout())
		},
	}
}

func printInterfaces(out io.Writer) error {
	ifaces, err := pndp.Interfaces()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tMAC\tFLAGS")
	for _, iface := range ifaces {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", iface.Index, iface.Name, iface.HardwareAddr, iface.Flags)
	}
	return w.Flush()
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the proxy neighbor installation backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printBackends(cmd.OutOrStdout())
		},
	}
}

func printBackends(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range modules.Names() {
		m, _ := modules.Lookup(name)
		fmt.Fprintf(w, "%s\t%s\n", m.Name, m.Description)
	}
	return w.Flush()
}

func newNeighborsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors <broadcast-interface>",
		Short: "List the IPv6 proxy neighbor entries installed on an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pndp.CheckInterfaces(args[0]); err != nil {
				return err
			}
			addrs, err := rtnetlink.List(args[0])
			if err != nil {
				return err
			}
			for _, addr := range addrs {
				fmt.Fprintln(cmd.OutOrStdout(), addr)
			}
			return nil
		},
	}
}
