package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	appNotification "github.com/petersenmatthew/MEI/internal/application/notification"
	appRAG "github.com/petersenmatthew/MEI/internal/application/rag"
	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainNotification "github.com/petersenmatthew/MEI/internal/domain/notification"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// historyFetchLimit 组装提示时回看的历史消息条数
const historyFetchLimit = 20

// Loop 回复循环编排器
// 单协程顺序处理：游标、自发送表都只有这一个写入者
type Loop struct {
	reader    message.StoreReader
	sender    message.Sender
	generator domainAgent.Generator
	search    *appRAG.SearchService
	styles    domainAgent.StyleRepository
	policies  domainAgent.ContactPolicyRepository
	exchanges domainAgent.ExchangeRepository
	kv        domainAgent.KVStore
	state     *State
	behavior  *BehaviorModel
	prompts   *PromptBuilder
	notifier  *appNotification.Service
	bus       events.EventBus

	pollInterval   time.Duration
	batchSize      int
	selfSendBuffer time.Duration

	// inFlight 轮询进行中标记：慢调用期间的 tick 丢弃而不是排队
	inFlight atomic.Bool

	mu          sync.Mutex
	ticker      *time.Ticker
	pollChan    chan struct{}
	stopChan    chan struct{}
	unsubscribe func()
	logger      *slog.Logger

	// 测试注入点
	now   func() time.Time
	sleep func(time.Duration)
}

// NewLoop 创建回复循环
func NewLoop(
	reader message.StoreReader,
	sender message.Sender,
	generator domainAgent.Generator,
	search *appRAG.SearchService,
	styles domainAgent.StyleRepository,
	policies domainAgent.ContactPolicyRepository,
	exchanges domainAgent.ExchangeRepository,
	kv domainAgent.KVStore,
	state *State,
	behavior *BehaviorModel,
	prompts *PromptBuilder,
	notifier *appNotification.Service,
	bus events.EventBus,
	cfg *config.AgentConfig,
) *Loop {
	return &Loop{
		reader:         reader,
		sender:         sender,
		generator:      generator,
		search:         search,
		styles:         styles,
		policies:       policies,
		exchanges:      exchanges,
		kv:             kv,
		state:          state,
		behavior:       behavior,
		prompts:        prompts,
		notifier:       notifier,
		bus:            bus,
		pollInterval:   time.Duration(cfg.PollIntervalSeconds) * time.Second,
		batchSize:      cfg.BatchSize,
		selfSendBuffer: time.Duration(cfg.SelfSendBufferSeconds) * time.Second,
		pollChan:       make(chan struct{}, 1),
		stopChan:       make(chan struct{}),
		logger:         log.NewModuleLogger("agent", "loop"),
		now:            time.Now,
		sleep:          time.Sleep,
	}
}

// Start 初始化游标并启动轮询
// 消息库变更事件会触发一次额外轮询，缩短响应延迟
func (l *Loop) Start() error {
	if err := l.reader.Open(); err != nil {
		return fmt.Errorf("open message store: %w", err)
	}
	if err := l.initCursor(); err != nil {
		return fmt.Errorf("init cursor: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.ticker = time.NewTicker(l.pollInterval)
	if l.bus != nil {
		l.unsubscribe = l.bus.Subscribe(events.ChatStoreChanged, events.HandlerFunc(func(events.Event) error {
			l.TriggerPoll()
			return nil
		}))
	}
	go l.run()

	l.logger.Info("Agent loop started",
		"interval", l.pollInterval,
		"batch_size", l.batchSize,
		"mode", l.state.Mode(),
	)
	return nil
}

// Stop 停止轮询
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ticker != nil {
		l.ticker.Stop()
	}
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	close(l.stopChan)
}

// TriggerPoll 请求一次额外轮询，已有待处理请求时为空操作
func (l *Loop) TriggerPoll() {
	select {
	case l.pollChan <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	for {
		select {
		case <-l.ticker.C:
			l.Poll()
		case <-l.pollChan:
			l.Poll()
		case <-l.stopChan:
			return
		}
	}
}

// initCursor 恢复检查点；首次启动时从消息库当前最大游标开始
// 不回溯处理历史消息，代理只回复启动之后到来的消息
func (l *Loop) initCursor() error {
	raw, found, err := l.kv.Load(domainAgent.KeyReplyCursor)
	if err != nil {
		return err
	}
	if found {
		if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
			l.logger.Info("Resuming from persisted cursor", "cursor", raw)
			return nil
		}
		l.logger.Warn("Corrupt reply cursor, reinitializing", "value", raw)
	}

	maxRowID, err := l.reader.MaxRowID()
	if err != nil {
		return err
	}
	if err := l.kv.Save(domainAgent.KeyReplyCursor, strconv.FormatInt(maxRowID, 10)); err != nil {
		return err
	}
	l.logger.Info("Fresh start, cursor set to store max", "cursor", maxRowID)
	return nil
}

// Poll 执行一轮轮询
// 已有一轮在进行时直接丢弃本次 tick
func (l *Loop) Poll() {
	if !l.inFlight.CompareAndSwap(false, true) {
		l.logger.Debug("Poll already in flight, tick dropped")
		return
	}
	defer l.inFlight.Store(false)

	if !l.state.Mode().IsPolling() {
		return
	}

	cursor, err := l.loadCursor()
	if err != nil {
		l.logger.Error("Failed to load reply cursor", "error", err)
		return
	}

	batch, err := l.reader.FetchSince(cursor, l.batchSize)
	if err != nil {
		l.logger.Error("Failed to fetch messages", "cursor", cursor, "error", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	l.logger.Info("Processing batch", "count", len(batch), "cursor", cursor)

	for _, msg := range batch {
		killed := l.processMessage(msg)

		// 无论结果如何都推进游标，崩溃后最多重处理一条
		if err := l.kv.Save(domainAgent.KeyReplyCursor, strconv.FormatInt(msg.RowID, 10)); err != nil {
			l.logger.Error("Failed to persist reply cursor", "row_id", msg.RowID, "error", err)
			return
		}

		if killed {
			// 模式已切到 killed，批次剩余消息放弃
			l.logger.Warn("Kill word received, aborting batch", "row_id", msg.RowID)
			return
		}
	}
}

func (l *Loop) loadCursor() (int64, error) {
	raw, found, err := l.kv.Load(domainAgent.KeyReplyCursor)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// processMessage 单条消息的完整流水线
// 返回是否命中 kill word
func (l *Loop) processMessage(msg *message.Message) bool {
	settings := l.state.Settings()

	policy, hasPolicy, err := l.policies.Get(msg.ConversationID)
	if err != nil {
		l.logger.Error("Failed to load contact policy", "conversation_id", msg.ConversationID, "error", err)
		hasPolicy = false
	}

	decision := EvaluateIncoming(GateInput{
		Message:          msg,
		Mode:             settings.Mode,
		Settings:         &settings,
		ContactPolicy:    policy,
		HasContactPolicy: hasPolicy,
		Now:              l.now(),
		RecentOutgoing:   l.recentOutgoingCheck(msg.ConversationID, &settings),
	})

	switch decision.Verdict {
	case domainAgent.VerdictSkip:
		// 常规跳过不记录也不通知，避免自发消息刷屏
		l.logger.Debug("Message skipped", "row_id", msg.RowID, "reason", decision.Reason)
		return false
	case domainAgent.VerdictDefer:
		l.recordExchange(msg, domainAgent.ExchangeDefer, decision.Reason, nil, nil)
		l.notifier.Notify(msg.ConversationID, "Reply deferred", decision.Reason, domainNotification.TypeInfo)
		return false
	case domainAgent.VerdictKill:
		l.recordExchange(msg, domainAgent.ExchangeKill, decision.Reason, nil, nil)
		if err := l.state.SetMode(domainAgent.ModeKilled, decision.Reason); err != nil {
			l.logger.Error("Failed to persist killed mode", "error", err)
		}
		l.notifier.Notify(msg.ConversationID, "Agent killed", decision.Reason, domainNotification.TypeWarning)
		return true
	}

	l.respond(msg, &settings, policy, hasPolicy)
	return false
}

// respond 检索、生成、复核并发送回复
func (l *Loop) respond(msg *message.Message, settings *domainAgent.Settings, policy domainAgent.ContactPolicy, hasPolicy bool) {
	// 检索失败降级为无参考生成
	chunks, err := l.search.Search(msg.Text, msg.ConversationID, 0, 0)
	if err != nil {
		l.logger.Warn("Retrieval failed, generating without references", "error", err)
		chunks = nil
	}

	profile, err := l.styles.Load(msg.ConversationID)
	if err != nil {
		l.logger.Warn("Style profile lookup failed", "conversation_id", msg.ConversationID, "error", err)
		profile = nil
	}

	history, err := l.reader.FetchRecent(msg.ConversationID, historyFetchLimit)
	if err != nil {
		l.logger.Warn("History fetch failed, prompting with trigger only", "error", err)
		history = nil
	}

	prompt := l.prompts.Build(msg, chunks, profile, history, settings.RestrictedTopics)

	raw, err := l.generator.Generate(prompt.SystemInstruction, prompt.Turns, prompt.FinalMessage)
	if err != nil {
		// 游标已过这条消息，不重试（按设计 at-most-once）
		l.logger.Error("Generation failed", "row_id", msg.RowID, "error", err)
		l.recordExchange(msg, domainAgent.ExchangeError, fmt.Sprintf("generation failed: %v", err), nil, chunks)
		var genErr *domainAgent.GenerationError
		if errors.As(err, &genErr) && genErr.Kind == domainAgent.GenerationKindNoCredentials {
			l.notifier.Notify(msg.ConversationID, "LLM credentials missing", err.Error(), domainNotification.TypeError)
		}
		return
	}

	parsed := ParseResponse(raw)
	verdict := EvaluateResponse(parsed, raw, settings.ConfidenceThreshold)

	switch verdict.Verdict {
	case domainAgent.VerdictSkip:
		l.recordExchange(msg, domainAgent.ExchangeSkip, verdict.Reason, &parsed, chunks)
		return
	case domainAgent.VerdictDefer:
		ex := &domainAgent.Exchange{
			ID:            uuid.NewString(),
			Timestamp:     l.now(),
			Conversation:  msg.ConversationID,
			IncomingText:  msg.Text,
			Decision:      domainAgent.ExchangeDefer,
			Reason:        verdict.Reason,
			GeneratedText: strings.Join(parsed.Segments, segmentDelimiter),
			Confidence:    parsed.Confidence,
			RAGChunkIDs:   chunkIDs(chunks),
		}
		l.saveExchange(ex)
		l.notifier.Notify(msg.ConversationID, "Reply deferred", verdict.Reason, domainNotification.TypeInfo)
		return
	}

	segments := parsed.Segments
	if len(segments) > 1 && !l.behavior.ShouldBurst(profile) {
		// 画像不倾向连发时合并成单条
		segments = []string{strings.Join(segments, "\n")}
	}

	shadow := settings.Mode == domainAgent.ModeShadow || (hasPolicy && policy == domainAgent.PolicyShadowOnly)
	if shadow {
		ex := &domainAgent.Exchange{
			ID:            uuid.NewString(),
			Timestamp:     l.now(),
			Conversation:  msg.ConversationID,
			IncomingText:  msg.Text,
			Decision:      domainAgent.ExchangeShadow,
			GeneratedText: strings.Join(segments, segmentDelimiter),
			Confidence:    parsed.Confidence,
			WasShadow:     true,
			RAGChunkIDs:   chunkIDs(chunks),
		}
		l.saveExchange(ex)
		l.logger.Info("Shadow reply recorded", "conversation_id", msg.ConversationID, "confidence", parsed.Confidence)
		return
	}

	l.deliver(msg, settings, profile, segments, parsed.Confidence, chunks)
}

// deliver 拟人延迟后发送各段，延迟结束时复核用户是否已自己回复
func (l *Loop) deliver(msg *message.Message, settings *domainAgent.Settings, profile *domainAgent.StyleProfile, segments []string, confidence float64, chunks []*domainRAG.Chunk) {
	delay := l.behavior.SampleReplyDelay(profile)

	l.logger.Info("Reply scheduled", "conversation_id", msg.ConversationID, "delay", delay)
	l.sleep(delay)

	// 延迟期间用户可能已经亲自回复，此时放弃发送
	if check := l.recentOutgoingCheck(msg.ConversationID, settings); check() {
		l.logger.Info("User replied during delay, send aborted", "conversation_id", msg.ConversationID)
		return
	}

	sent := 0
	for i, segment := range segments {
		if i > 0 {
			l.sleep(l.behavior.SampleBurstDelay())
		}
		if err := l.sender.Send(msg.ConversationID, segment); err != nil {
			// 部分发出的段无法撤回，记录实际发出的内容
			l.logger.Error("Send failed, aborting remaining segments",
				"conversation_id", msg.ConversationID,
				"sent_segments", sent,
				"error", err,
			)
			ex := &domainAgent.Exchange{
				ID:                uuid.NewString(),
				Timestamp:         l.now(),
				Conversation:      msg.ConversationID,
				IncomingText:      msg.Text,
				Decision:          domainAgent.ExchangeError,
				Reason:            fmt.Sprintf("send failed after %d segments: %v", sent, err),
				GeneratedText:     strings.Join(segments, segmentDelimiter),
				Confidence:        confidence,
				WasSent:           sent > 0,
				ReplyDelaySeconds: delay.Seconds(),
				RAGChunkIDs:       chunkIDs(chunks),
			}
			l.saveExchange(ex)
			l.notifier.Notify(msg.ConversationID, "Send failed", err.Error(), domainNotification.TypeError)
			return
		}
		sent++
		// 缓冲吸收发送调用返回与消息落库之间的往返延迟
		l.state.RecordSelfSend(msg.ConversationID, l.now().Add(l.selfSendBuffer))
	}

	ex := &domainAgent.Exchange{
		ID:                uuid.NewString(),
		Timestamp:         l.now(),
		Conversation:      msg.ConversationID,
		IncomingText:      msg.Text,
		Decision:          domainAgent.ExchangeSent,
		GeneratedText:     strings.Join(segments, segmentDelimiter),
		Confidence:        confidence,
		WasSent:           true,
		ReplyDelaySeconds: delay.Seconds(),
		RAGChunkIDs:       chunkIDs(chunks),
	}
	l.saveExchange(ex)

	if l.bus != nil {
		l.bus.Publish(&events.ReplySentEvent{
			Conversation: msg.ConversationID,
			Segments:     sent,
			EventTime:    l.now(),
		})
	}
	l.logger.Info("Reply sent", "conversation_id", msg.ConversationID, "segments", sent, "confidence", confidence)
}

// recentOutgoingCheck 构造惰性的用户近期回复检查
// 有效截止线取回看窗口与最近自发送时刻的较大者，避免把代理自己的消息当成用户在回复
func (l *Loop) recentOutgoingCheck(conversationID string, settings *domainAgent.Settings) func() bool {
	return func() bool {
		within := time.Duration(settings.RecentOutgoingWindowSeconds) * time.Second
		after := l.state.LastSelfSend(conversationID)
		recent, err := l.reader.HasRecentOutgoing(conversationID, within, after)
		if err != nil {
			l.logger.Error("Recent-outgoing check failed", "conversation_id", conversationID, "error", err)
			return false
		}
		return recent
	}
}

// recordExchange 写入一条处理记录
func (l *Loop) recordExchange(msg *message.Message, decision, reason string, parsed *ParsedResponse, chunks []*domainRAG.Chunk) {
	ex := &domainAgent.Exchange{
		ID:           uuid.NewString(),
		Timestamp:    l.now(),
		Conversation: msg.ConversationID,
		IncomingText: msg.Text,
		Decision:     decision,
		Reason:       reason,
		RAGChunkIDs:  chunkIDs(chunks),
	}
	if parsed != nil {
		ex.Confidence = parsed.Confidence
	}
	l.saveExchange(ex)
}

func (l *Loop) saveExchange(ex *domainAgent.Exchange) {
	if err := l.exchanges.Save(ex); err != nil {
		l.logger.Error("Failed to save exchange record", "exchange_id", ex.ID, "error", err)
		return
	}
	if l.bus != nil {
		l.bus.Publish(&events.ExchangeLoggedEvent{
			ExchangeID:   ex.ID,
			Conversation: ex.Conversation,
			Decision:     ex.Decision,
			EventTime:    ex.Timestamp,
		})
	}
}

func chunkIDs(chunks []*domainRAG.Chunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids
}
