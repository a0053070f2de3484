package breaker

// 指标名称
const (
	// MetricRequestsTotal 请求总数 (Counter)，按 result 区分 success/failure/rejected
	MetricRequestsTotal = "breaker_requests_total"

	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"
)

// 标签
const (
	LabelKey       = "key"
	LabelResult    = "result"
	LabelFromState = "from_state"
	LabelToState   = "to_state"
)

// result 标签取值
const (
	resultSuccess  = "success"
	resultFailure  = "failure"
	resultRejected = "rejected"
)
