package zk

// 指标名称
const (
	// MetricCommandTotal 四字命令执行次数 (Counter)，标签：host、command、outcome
	MetricCommandTotal = "zk_command_total"

	// MetricCommandDuration 四字命令执行耗时 (Histogram)，单位秒，标签：host、command
	MetricCommandDuration = "zk_command_duration_seconds"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
