package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "zkmon",
		Short: "Monitor ZooKeeper clusters through four-letter commands",
		Long: `zkmon polls every host of a ZooKeeper cluster with a four-letter command
(srvr by default), tracks each host's health and publishes an event whenever
the health of a host changes.

Without --config the file zkmon.yaml is searched in "." and "./config"; when
none is found the cluster "default" with localhost:2181 is monitored.
Any key can be overridden by an environment variable prefixed with ZKMON_,
e.g. ZKMON_MONITOR_INTERVAL=5s.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to the configuration file (yaml, json or toml)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newExecCmd())

	return cmd
}
