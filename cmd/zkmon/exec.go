package main

import (
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ceyewan/zkmonitor/xerrors"
	"github.com/ceyewan/zkmonitor/zk"
)

func newExecCmd() *cobra.Command {
	var timeout float64
	cmd := &cobra.Command{
		Use:   "exec <command> <host[:port]>",
		Short: "Run one four-letter command against a host and print the raw output",
		Example: `  zkmon exec srvr 10.0.0.1
  zkmon exec mntr zk1.internal:2182 --timeout 0.5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := zk.ParseCommand(args[0])
			if err != nil {
				return err
			}
			hc, err := parseHostArg(args[1])
			if err != nil {
				return err
			}
			hc.Timeout = &timeout

			h, err := zk.NewHost(hc, zk.WithoutInfoUpdate())
			if err != nil {
				return err
			}
			out := h.Raw(cmd.Context(), command)
			if !out.OK() {
				return xerrors.Wrapf(out.Err, "%s on %s", command, h)
			}
			_, err = cmd.OutOrStdout().Write(out.Value)
			return err
		},
	}
	cmd.Flags().Float64VarP(&timeout, "timeout", "t", zk.DefaultTimeout.Seconds(), "Timeout in seconds")
	return cmd
}

// parseHostArg 解析 host[:port]，未指定端口时使用 2181
func parseHostArg(s string) (*zk.HostConfig, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "host is empty")
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// 不带端口，IPv6 地址允许带方括号
		return &zk.HostConfig{Addr: strings.Trim(s, "[]"), Port: zk.DefaultPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidInput, "invalid port %q", portStr)
	}
	return &zk.HostConfig{Addr: host, Port: port}, nil
}
