package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ceyewan/zkmonitor/clog"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the cluster until interrupted",
		Long: `Poll every host at the configured interval until SIGINT or SIGTERM.

Hosts appended to cluster.hosts in the configuration file are picked up
without a restart; removed hosts stay monitored until the next restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, loader, err := loadConfig(ctx, opts.configFile, bootstrapLogger())
			if err != nil {
				return err
			}
			app, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close(context.Background()) }()

			if loader.ConfigFileUsed() != "" {
				if err := app.watchHosts(ctx, loader); err != nil {
					return err
				}
			}
			if err := app.monitor.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			app.logger.Info("shutting down", clog.String("cluster", app.cluster.Name()))
			return nil
		},
	}
}

// bootstrapLogger 在读取日志配置之前使用，只输出警告以上的日志到 stderr
func bootstrapLogger() clog.Logger {
	logger, err := clog.New(&clog.Config{Level: "warn", Format: "console", Output: "stderr"},
		clog.WithNamespace(serviceName, "config"))
	if err != nil {
		return clog.Discard()
	}
	return logger
}
