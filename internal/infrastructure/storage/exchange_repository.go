package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
)

// 确保 ExchangeRepositoryImpl 实现了接口
var _ domainAgent.ExchangeRepository = (*ExchangeRepositoryImpl)(nil)

// ExchangeRepositoryImpl 处理记录仓储实现
type ExchangeRepositoryImpl struct {
	db *sql.DB
}

// NewExchangeRepository 创建处理记录仓储实例
func NewExchangeRepository(db *sql.DB) domainAgent.ExchangeRepository {
	return &ExchangeRepositoryImpl{db: db}
}

// Save 追加一条处理记录
func (r *ExchangeRepositoryImpl) Save(ex *domainAgent.Exchange) error {
	chunkIDs, err := json.Marshal(ex.RAGChunkIDs)
	if err != nil {
		return fmt.Errorf("marshal chunk ids: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT INTO agent_log (
			id, timestamp, conversation_id, incoming_text, decision, reason,
			generated_text, confidence, was_sent, was_shadow, reply_delay_seconds, rag_chunks_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Timestamp.Unix(), ex.Conversation, ex.IncomingText, ex.Decision, ex.Reason,
		ex.GeneratedText, ex.Confidence, boolToInt(ex.WasSent), boolToInt(ex.WasShadow),
		ex.ReplyDelaySeconds, string(chunkIDs),
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// List 按时间倒序分页列出处理记录
func (r *ExchangeRepositoryImpl) List(offset, limit int) ([]*domainAgent.Exchange, int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM agent_log`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exchanges: %w", err)
	}

	rows, err := r.db.Query(
		`SELECT id, timestamp, conversation_id, incoming_text, decision, reason,
			generated_text, confidence, was_sent, was_shadow, reply_delay_seconds, rag_chunks_used
		FROM agent_log ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges, err := scanExchanges(rows)
	if err != nil {
		return nil, 0, err
	}
	return exchanges, total, nil
}

// ListByConversation 列出指定会话的处理记录，按时间倒序
func (r *ExchangeRepositoryImpl) ListByConversation(conversationID string, limit int) ([]*domainAgent.Exchange, error) {
	rows, err := r.db.Query(
		`SELECT id, timestamp, conversation_id, incoming_text, decision, reason,
			generated_text, confidence, was_sent, was_shadow, reply_delay_seconds, rag_chunks_used
		FROM agent_log WHERE conversation_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges by conversation: %w", err)
	}
	defer rows.Close()

	return scanExchanges(rows)
}

func scanExchanges(rows *sql.Rows) ([]*domainAgent.Exchange, error) {
	var exchanges []*domainAgent.Exchange
	for rows.Next() {
		var ex domainAgent.Exchange
		var ts int64
		var wasSent, wasShadow int
		var chunkIDs string
		if err := rows.Scan(
			&ex.ID, &ts, &ex.Conversation, &ex.IncomingText, &ex.Decision, &ex.Reason,
			&ex.GeneratedText, &ex.Confidence, &wasSent, &wasShadow, &ex.ReplyDelaySeconds, &chunkIDs,
		); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ex.Timestamp = time.Unix(ts, 0)
		ex.WasSent = wasSent != 0
		ex.WasShadow = wasShadow != 0
		if chunkIDs != "" {
			// 片段 ID 列表以 JSON 数组存储，解析失败时保持为空
			_ = json.Unmarshal([]byte(chunkIDs), &ex.RAGChunkIDs)
		}
		exchanges = append(exchanges, &ex)
	}
	return exchanges, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
