package rag

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// ingestFetchPage 每次从消息库读取的消息数
const ingestFetchPage = 500

// conversationTail 每个会话重读的尾部消息数，保证窗口能跨越游标边界
const conversationTail = 200

// Ingestor 知识库摄取调度器
// 独立于回复循环的节奏：定时把新消息切片、向量化后写入片段库
// 摄取游标与回复游标是两个独立的检查点
type Ingestor struct {
	reader    message.StoreReader
	embedder  domainRAG.Embedder
	chunkRepo domainRAG.ChunkRepository
	kv        domainAgent.KVStore

	chunkerCfg ChunkerConfig
	interval   time.Duration

	// inFlight 摄取中标记：慢的向量化调用期间丢弃后续 tick
	inFlight atomic.Bool

	mu       sync.Mutex
	ticker   *time.Ticker
	stopChan chan struct{}
	logger   *slog.Logger
}

// NewIngestor 创建摄取调度器
func NewIngestor(
	reader message.StoreReader,
	embedder domainRAG.Embedder,
	chunkRepo domainRAG.ChunkRepository,
	kv domainAgent.KVStore,
	ingestCfg *config.IngestConfig,
	chatCfg *config.ChatStoreConfig,
) *Ingestor {
	chunkerCfg := ChunkerConfig{
		GapSeconds:   ingestCfg.ConversationGapSeconds,
		ChunkSize:    ingestCfg.ChunkSize,
		Overlap:      ingestCfg.ChunkOverlap,
		MinChunkSize: ingestCfg.MinChunkSize,
		SelfLabel:    chatCfg.SelfName,
	}
	return &Ingestor{
		reader:     reader,
		embedder:   embedder,
		chunkRepo:  chunkRepo,
		kv:         kv,
		chunkerCfg: chunkerCfg,
		interval:   time.Duration(ingestCfg.IntervalMinutes) * time.Minute,
		stopChan:   make(chan struct{}),
		logger:     log.NewModuleLogger("rag", "ingestor"),
	}
}

// Start 启动定时摄取
func (g *Ingestor) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.interval <= 0 {
		g.logger.Info("Periodic ingestion disabled")
		return
	}

	g.ticker = time.NewTicker(g.interval)
	go g.run()

	g.logger.Info("Ingestor started", "interval", g.interval)
}

// Stop 停止定时摄取
func (g *Ingestor) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ticker != nil {
		g.ticker.Stop()
	}
	close(g.stopChan)
}

func (g *Ingestor) run() {
	for {
		select {
		case <-g.ticker.C:
			g.RunOnce()
		case <-g.stopChan:
			return
		}
	}
}

// RunOnce 执行一轮增量摄取
// 已有一轮在进行时直接返回（丢弃而不是排队）
func (g *Ingestor) RunOnce() error {
	if !g.inFlight.CompareAndSwap(false, true) {
		g.logger.Debug("Ingestion already in flight, tick dropped")
		return nil
	}
	defer g.inFlight.Store(false)

	cursor, err := g.loadCursor()
	if err != nil {
		return fmt.Errorf("load ingest cursor: %w", err)
	}

	conversations, maxRowID, err := g.collectNewMessages(cursor)
	if err != nil {
		return err
	}
	if len(conversations) == 0 {
		return nil
	}

	// 会话按其最新消息的游标升序处理，摄取游标单调推进
	ordered := make([]string, 0, len(conversations))
	for conv := range conversations {
		ordered = append(ordered, conv)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return conversations[ordered[i]] < conversations[ordered[j]]
	})

	start := time.Now()
	total := 0
	for _, conv := range ordered {
		n, err := g.ingestConversation(conv)
		if err != nil {
			// 本轮中断，游标不推进，下一轮凭内容哈希幂等重试
			g.logger.Error("Failed to ingest conversation, will retry next pass",
				"conversation_id", conv,
				"error", err,
			)
			return err
		}
		total += n

		if err := g.kv.Save(domainAgent.KeyIngestCursor, strconv.FormatInt(conversations[conv], 10)); err != nil {
			g.logger.Error("Failed to persist ingest cursor", "error", err)
			return err
		}
	}

	g.logger.Info("Ingestion pass completed",
		"conversations", len(ordered),
		"chunks", total,
		"cursor", maxRowID,
		"duration", time.Since(start),
	)
	return nil
}

// Reindex 清空片段库并从头全量重建
func (g *Ingestor) Reindex() error {
	if !g.inFlight.CompareAndSwap(false, true) {
		return fmt.Errorf("ingestion already in flight")
	}
	// 游标归零后由 RunOnce 重新全量扫描
	if err := g.chunkRepo.Clear(); err != nil {
		g.inFlight.Store(false)
		return fmt.Errorf("clear chunks: %w", err)
	}
	if err := g.kv.Save(domainAgent.KeyIngestCursor, "0"); err != nil {
		g.inFlight.Store(false)
		return fmt.Errorf("reset ingest cursor: %w", err)
	}
	g.inFlight.Store(false)

	g.logger.Info("Reindex requested, running full ingestion pass")
	return g.RunOnce()
}

// loadCursor 读取摄取游标，缺失时为 0（全量摄取历史）
func (g *Ingestor) loadCursor() (int64, error) {
	raw, found, err := g.kv.Load(domainAgent.KeyIngestCursor)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.logger.Warn("Corrupt ingest cursor, restarting from zero", "value", raw)
		return 0, nil
	}
	return cursor, nil
}

// collectNewMessages 分页读取游标之后的消息，按会话归并
// 返回每个会话的最大游标；群聊与空文本不参与摄取
func (g *Ingestor) collectNewMessages(cursor int64) (map[string]int64, int64, error) {
	conversations := make(map[string]int64)
	maxRowID := cursor

	for {
		batch, err := g.reader.FetchSince(maxRowID, ingestFetchPage)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch messages since %d: %w", maxRowID, err)
		}
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			maxRowID = m.RowID
			if m.IsGroup || m.Text == "" {
				continue
			}
			if m.RowID > conversations[m.ConversationID] {
				conversations[m.ConversationID] = m.RowID
			}
		}
		if len(batch) < ingestFetchPage {
			break
		}
	}
	return conversations, maxRowID, nil
}

// ingestConversation 重读会话尾部、切片、向量化并入库
// 尾部重读让新消息能与游标之前的旧消息组成完整窗口
func (g *Ingestor) ingestConversation(conversationID string) (int, error) {
	history, err := g.reader.FetchRecent(conversationID, conversationTail)
	if err != nil {
		return 0, fmt.Errorf("fetch conversation tail: %w", err)
	}

	chunks := ChunkMessages(history, conversationID, g.chunkerCfg)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := g.embedder.EmbedTexts(texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}

	for i, chunk := range chunks {
		chunk.Embedding = vectors[i]
		if err := g.chunkRepo.Upsert(chunk); err != nil {
			return 0, fmt.Errorf("upsert chunk %s: %w", chunk.ID, err)
		}
	}

	g.logger.Debug("Conversation ingested",
		"conversation_id", conversationID,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}
