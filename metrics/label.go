package metrics

// 常用标签
const (
	LabelCluster = "cluster"
	LabelHost    = "host"
	LabelCommand = "command"
	LabelOutcome = "outcome"
)

// Label 指标标签，为指标添加维度信息
//
// 避免高基数标签值，如请求 ID。
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数
//
//	counter.Inc(ctx, metrics.L("command", "srvr"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}
