package rag

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/petersenmatthew/MEI/internal/domain/message"
	domainRAG "github.com/petersenmatthew/MEI/internal/domain/rag"
)

// ChunkerConfig 切片参数
type ChunkerConfig struct {
	// GapSeconds 相邻消息间隔超过此秒数时切分会话段
	GapSeconds int
	// ChunkSize 每个片段的消息数上限
	ChunkSize int
	// Overlap 滑动窗口重叠消息数
	Overlap int
	// MinChunkSize 低于此消息数的会话段/尾部窗口丢弃
	MinChunkSize int
	// SelfLabel 本人消息的发送者标签
	SelfLabel string
}

// DefaultChunkerConfig 默认切片参数
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		GapSeconds:   3600,
		ChunkSize:    10,
		Overlap:      3,
		MinChunkSize: 3,
		SelfLabel:    "Me",
	}
}

// ChunkMessages 把一个会话的消息序列切成检索片段
// 纯函数：相同输入总是产生相同的片段集合（ID 由内容哈希决定）
// 算法：按时间间隔切段 → 丢弃过短的段 → 段内滑动窗口
func ChunkMessages(messages []*message.Message, conversationID string, cfg ChunkerConfig) []*domainRAG.Chunk {
	if len(messages) == 0 {
		return nil
	}

	var chunks []*domainRAG.Chunk
	for _, segment := range splitByGap(messages, cfg.GapSeconds) {
		if len(segment) < cfg.MinChunkSize {
			continue
		}

		// 不超过窗口大小的段整体成为一个片段
		if len(segment) <= cfg.ChunkSize {
			chunks = append(chunks, buildChunk(segment, conversationID, cfg.SelfLabel))
			continue
		}

		stride := cfg.ChunkSize - cfg.Overlap
		for i := 0; i < len(segment); i += stride {
			end := i + cfg.ChunkSize
			if end > len(segment) {
				end = len(segment)
			}
			window := segment[i:end]
			// 尾部不足最小长度的窗口丢弃
			if len(window) < cfg.MinChunkSize {
				continue
			}
			chunks = append(chunks, buildChunk(window, conversationID, cfg.SelfLabel))
		}
	}
	return chunks
}

// splitByGap 按相邻消息的时间间隔切分会话段
func splitByGap(messages []*message.Message, gapSeconds int) [][]*message.Message {
	gap := time.Duration(gapSeconds) * time.Second

	var segments [][]*message.Message
	current := []*message.Message{messages[0]}
	for _, m := range messages[1:] {
		if m.Timestamp.Sub(current[len(current)-1].Timestamp) > gap {
			segments = append(segments, current)
			current = nil
		}
		current = append(current, m)
	}
	return append(segments, current)
}

// buildChunk 把一个消息窗口渲染成片段
// 时间戳取窗口内第一条消息
func buildChunk(window []*message.Message, conversationID, selfLabel string) *domainRAG.Chunk {
	lines := make([]string, len(window))
	for i, m := range window {
		lines[i] = senderLabel(m, selfLabel) + ": " + m.Text
	}
	text := strings.Join(lines, "\n")

	return &domainRAG.Chunk{
		ID:             chunkID(text),
		ConversationID: conversationID,
		Timestamp:      window[0].Timestamp,
		MessageCount:   len(window),
		Text:           text,
	}
}

// senderLabel 渲染发送者标签
func senderLabel(m *message.Message, selfLabel string) string {
	if m.IsFromMe {
		return selfLabel
	}
	if m.DisplayName != "" {
		return m.DisplayName
	}
	if m.SenderID != "" {
		return m.SenderID
	}
	return "Them"
}

// chunkID 片段内容哈希 ID：MD5 前 6 字节的十六进制
// 内容相同的片段 ID 相同，重复摄取时幂等覆盖
func chunkID(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:12]
}
