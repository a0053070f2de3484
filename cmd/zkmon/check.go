package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ceyewan/zkmonitor/notify"
)

var errUnhealthy = errors.New("cluster is not healthy")

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every host once and print the cluster status as JSON",
		Long: `Run the configured command once against every host and print the
cluster status as JSON. The exit code is 1 unless every host is HEALTHY.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cfg, _, err := loadConfig(ctx, opts.configFile, bootstrapLogger())
			if err != nil {
				return err
			}
			// stdout 只输出 JSON；单次检查不暴露指标也不发布事件
			if cfg.Log.Output == "stdout" {
				cfg.Log.Output = "stderr"
			}
			cfg.Metrics.Port = 0
			cfg.Notify.Driver = notify.DriverNone

			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close(context.Background()) }()

			app.monitor.Poll(ctx)
			status := app.cluster.Status()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				return err
			}
			if !status.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Upper bound for the whole check")
	return cmd
}
