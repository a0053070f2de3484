// Package zk 实现 ZooKeeper 四字命令客户端与集群主机注册表。
//
// Host 负责单个节点：在超时内完成解析、连接、发送命令并读取到对端关闭，
// 再将响应解析为结构化数据并推导健康状态。Cluster 按插入顺序保存主机，
// 保证 "address:port" 标识唯一，并记录出现过的数据中心。
//
// 命令结果以 Outcome 返回，网络与解析失败不会作为 error 传播：
//
//	cluster, _ := zk.NewClusterFromConfig(&zk.ClusterConfig{
//		Name:  "main",
//		Hosts: []zk.HostConfig{{Addr: "10.0.0.1"}, {Addr: "10.0.0.2", DC: "eu-west"}},
//	}, zk.WithHostOptions(zk.WithLogger(logger)))
//
//	for _, h := range cluster.Hosts() {
//		if out := h.Srvr(ctx); !out.OK() {
//			logger.Warn("host unhealthy", clog.String("host", h.ID()), clog.String("health", h.Health().String()))
//		}
//	}
//
// 集群注册错误（ErrHostCreate、ErrHostAdd、ErrHostDuplicate）总是返回给调用方。
package zk
