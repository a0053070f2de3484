package trace

// 四字命令 Span 属性键
const (
	AttrZKCommand = "zk.command"
	AttrZKHost    = "zk.host"
	AttrZKOutcome = "zk.outcome"
)

// Messaging 语义属性键
const (
	AttrMessagingSystem      = "messaging.system"
	AttrMessagingDestination = "messaging.destination"
	AttrMessagingOperation   = "messaging.operation"
)

// 常见的消息系统
const (
	MessagingSystemNATS  = "nats"
	MessagingSystemKafka = "kafka"
)

// MessagingOperationPublish 发布操作
const MessagingOperationPublish = "publish"

// SpanNameZKExecute 返回一次四字命令执行的 Span Name
func SpanNameZKExecute(command string) string {
	if command == "" {
		return "zk.execute"
	}
	return "zk.execute " + command
}

// SpanNameNotifyPublish 返回健康事件发布到 subject/topic 的 Span Name
func SpanNameNotifyPublish(destination string) string {
	if destination == "" {
		return "notify.publish"
	}
	return "notify.publish " + destination
}
