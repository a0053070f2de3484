// zkmon 通过四字命令监控 ZooKeeper 集群。
//
//	zkmon run -c zkmon.yaml     # 周期轮询，直到收到 SIGINT/SIGTERM
//	zkmon check -c zkmon.yaml   # 执行一轮检查并输出 JSON，集群不健康时退出码为 1
//	zkmon exec mntr 10.0.0.1    # 对单台主机执行一条命令并输出原始结果
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
