package events

// Handler 事件处理器
// 返回的 error 只做日志记录，总线不会重试或中断其它处理器
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 把普通函数适配成 Handler
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 进程内事件总线
// 发布是异步的：Publish 立即返回，处理器在各自的 goroutine 中执行
type EventBus interface {
	// Subscribe 订阅一种事件，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple 用同一个处理器订阅多种事件
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	// Publish 异步分发事件到所有订阅者
	Publish(event Event)

	// Close 停止接收新事件并等待在途处理完成
	Close()
}
