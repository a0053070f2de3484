package connector

const (
	// MetricConnectionsTotal 连接尝试次数 (Counter)
	MetricConnectionsTotal = "connector_connections_total"

	LabelConnector = "connector"
	LabelResult    = "result"

	resultSuccess = "success"
	resultFailure = "failure"
)
