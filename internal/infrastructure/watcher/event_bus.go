// Package watcher 监听外部消息库文件并分发进程内事件
package watcher

import (
	"log/slog"
	"sync"

	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// subscription 一条订阅记录，token 用于精确退订
type subscription struct {
	token   uint64
	handler events.Handler
}

// eventBus EventBus 实现
// 订阅以单调递增 token 标识，退订按 token 删除
type eventBus struct {
	mu        sync.RWMutex
	subs      map[events.EventType][]subscription
	nextToken uint64
	closed    bool

	// inflight 等待所有已派发的处理 goroutine 退出
	inflight sync.WaitGroup
	logger   *slog.Logger
}

// NewEventBus 创建事件总线
func NewEventBus() events.EventBus {
	return &eventBus{
		subs:   make(map[events.EventType][]subscription),
		logger: log.NewModuleLogger("watcher", "event_bus"),
	}
}

// Subscribe 订阅一种事件
func (b *eventBus) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextToken++
	token := b.nextToken
	b.subs[eventType] = append(b.subs[eventType], subscription{token: token, handler: handler})

	return func() {
		b.remove(eventType, token)
	}
}

// SubscribeMultiple 用同一个处理器订阅多种事件
func (b *eventBus) SubscribeMultiple(eventTypes []events.EventType, handler events.Handler) func() {
	cancels := make([]func(), 0, len(eventTypes))
	for _, et := range eventTypes {
		cancels = append(cancels, b.Subscribe(et, handler))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (b *eventBus) remove(eventType events.EventType, token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[eventType]
	for i, s := range subs {
		if s.token == token {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish 异步分发事件
// 关闭后的发布是空操作
func (b *eventBus) Publish(event events.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]subscription, len(b.subs[event.Type()]))
	copy(subs, b.subs[event.Type()])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	b.logger.Debug("Publishing event",
		"type", event.Type(),
		"subscribers", len(subs),
	)

	for _, s := range subs {
		b.inflight.Add(1)
		go b.dispatch(event, s.handler)
	}
}

// dispatch 执行单个处理器，panic 不得影响其它处理器
func (b *eventBus) dispatch(event events.Event, handler events.Handler) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				"type", event.Type(),
				"panic", r,
			)
		}
	}()

	if err := handler.HandleEvent(event); err != nil {
		b.logger.Error("Event handler failed",
			"type", event.Type(),
			"error", err,
		)
	}
}

// Close 拒绝新事件并等待在途处理完成
func (b *eventBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.inflight.Wait()
	b.logger.Info("Event bus closed")
}
