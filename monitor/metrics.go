package monitor

// 指标名称
const (
	// MetricHostHealth 主机健康状态 (Gauge)，值为 zk.Health 的枚举值，标签：cluster、host
	MetricHostHealth = "zk_host_health"

	// MetricPollTotal 完成的轮询轮数 (Counter)，标签：cluster
	MetricPollTotal = "zk_poll_total"

	// MetricPollDuration 单轮轮询耗时 (Histogram)，单位秒，标签：cluster
	MetricPollDuration = "zk_poll_duration_seconds"

	// MetricTransitionTotal 健康状态变化次数 (Counter)，标签：cluster、to
	MetricTransitionTotal = "zk_health_transitions_total"
)

// LabelTo 状态变化的目标状态
const LabelTo = "to"
