package ratelimit

const (
	// MetricAllowTotal 限流检查总次数 (Counter)
	MetricAllowTotal = "ratelimit_allow_total"

	// LabelKey 限流键标签
	LabelKey = "key"

	// LabelResult 结果标签
	LabelResult = "result"

	// ResultAllowed 允许通过
	ResultAllowed = "allowed"

	// ResultDenied 被拒绝
	ResultDenied = "denied"
)
