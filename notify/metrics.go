package notify

// 指标名称
const (
	// MetricPublishTotal 事件发布次数 (Counter)，标签：driver、outcome
	MetricPublishTotal = "notify_publish_total"

	// MetricPublishDuration 事件发布耗时 (Histogram)，单位秒，标签：driver
	MetricPublishDuration = "notify_publish_duration_seconds"
)

// 标签
const (
	LabelDriver  = "driver"
	LabelOutcome = "outcome"
)
