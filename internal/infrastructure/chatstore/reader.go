package chatstore

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petersenmatthew/MEI/internal/domain/message"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 确保 Reader 实现了 message.StoreReader 接口
var _ message.StoreReader = (*Reader)(nil)

// cocoaEpoch 消息库时间基准：2001-01-01 00:00:00 UTC
var cocoaEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// groupChatStyle 群聊 chat.style 值
const groupChatStyle = 43

// Reader 外部消息库只读访问
// 消息库可能被宿主进程持有写锁，每次查询前复制到临时文件后只读打开
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader 创建消息库读取器实例
func NewReader(cfg *config.ChatStoreConfig) message.StoreReader {
	path := cfg.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, "Library", "Messages", "chat.db")
		}
	}
	return &Reader{
		path:   path,
		logger: log.NewModuleLogger("chatstore", "reader"),
	}
}

// Open 检查消息库可访问性
func (r *Reader) Open() error {
	if _, err := os.Stat(r.path); err != nil {
		return fmt.Errorf("chat store not accessible: %w", err)
	}
	db, cleanup, err := r.openSnapshot()
	if err != nil {
		return err
	}
	defer cleanup()
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'message'`).Scan(&n); err != nil {
		return fmt.Errorf("failed to inspect chat store: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("chat store has no message table: %s", r.path)
	}
	r.logger.Info("chat store accessible", "path", r.path)
	return nil
}

// MaxRowID 返回消息库当前最大游标
func (r *Reader) MaxRowID() (int64, error) {
	db, cleanup, err := r.openSnapshot()
	if err != nil {
		return 0, err
	}
	defer cleanup()
	defer db.Close()

	var max sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(ROWID) FROM message`).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to query max rowid: %w", err)
	}
	return max.Int64, nil
}

// messageSelect 消息查询的公共列与连接
// handle 可能缺失（本人发送的消息），用 LEFT JOIN
const messageSelect = `
	SELECT
		m.ROWID,
		m.guid,
		m.text,
		m.is_from_me,
		m.date,
		m.cache_has_attachments,
		c.chat_identifier,
		c.display_name,
		c.style,
		h.id
	FROM message m
	JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
	JOIN chat c ON cmj.chat_id = c.ROWID
	LEFT JOIN handle h ON m.handle_id = h.ROWID
	WHERE m.text IS NOT NULL AND m.text != ''`

// FetchSince 读取游标之后的消息，按 RowID 升序
func (r *Reader) FetchSince(cursor int64, limit int) ([]*message.Message, error) {
	db, cleanup, err := r.openSnapshot()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	defer db.Close()

	query := messageSelect + ` AND m.ROWID > ? ORDER BY m.ROWID ASC LIMIT ?`
	rows, err := db.Query(query, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// FetchRecent 读取指定会话最近的消息，按时间升序返回
func (r *Reader) FetchRecent(conversationID string, limit int) ([]*message.Message, error) {
	db, cleanup, err := r.openSnapshot()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	defer db.Close()

	// 倒序取最近 limit 条后再反转，保证返回时间升序
	query := messageSelect + ` AND c.chat_identifier = ? ORDER BY m.date DESC LIMIT ?`
	rows, err := db.Query(query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// HasRecentOutgoing 检查会话在 within 窗口内、after 时刻之后是否有本人发出的消息
func (r *Reader) HasRecentOutgoing(conversationID string, within time.Duration, after time.Time) (bool, error) {
	db, cleanup, err := r.openSnapshot()
	if err != nil {
		return false, err
	}
	defer cleanup()
	defer db.Close()

	cutoff := time.Now().Add(-within)
	if after.After(cutoff) {
		cutoff = after
	}

	query := `
		SELECT COUNT(*)
		FROM message m
		JOIN chat_message_join cmj ON m.ROWID = cmj.message_id
		JOIN chat c ON cmj.chat_id = c.ROWID
		WHERE c.chat_identifier = ?
			AND m.is_from_me = 1
			AND m.date > ?`

	var n int
	if err := db.QueryRow(query, conversationID, timeToCocoa(cutoff)).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query outgoing messages: %w", err)
	}
	return n > 0, nil
}

// openSnapshot 复制消息库到临时文件并只读打开
func (r *Reader) openSnapshot() (*sql.DB, func(), error) {
	if _, err := os.Stat(r.path); err != nil {
		return nil, nil, fmt.Errorf("chat store not found: %w", err)
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("mei_tmp_%s", filepath.Base(r.path)))
	if err := copyFile(r.path, tmpPath); err != nil {
		return nil, nil, fmt.Errorf("failed to copy chat store: %w", err)
	}
	cleanup := func() {
		os.Remove(tmpPath)
	}

	db, err := sql.Open("sqlite", tmpPath)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open chat store copy: %w", err)
	}
	return db, cleanup, nil
}

// scanMessages 扫描消息行
func scanMessages(rows *sql.Rows) ([]*message.Message, error) {
	var messages []*message.Message
	for rows.Next() {
		var (
			m              message.Message
			guid           sql.NullString
			text           sql.NullString
			isFromMe       int
			cocoaDate      int64
			hasAttachments int
			convID         sql.NullString
			displayName    sql.NullString
			style          sql.NullInt64
			handleID       sql.NullString
		)
		if err := rows.Scan(
			&m.RowID, &guid, &text, &isFromMe, &cocoaDate, &hasAttachments,
			&convID, &displayName, &style, &handleID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if cocoaDate == 0 {
			continue
		}
		m.GUID = guid.String
		m.Text = strings.TrimSpace(text.String)
		m.IsFromMe = isFromMe != 0
		m.Timestamp = cocoaToTime(cocoaDate)
		m.ConversationID = convID.String
		m.DisplayName = displayName.String
		m.IsGroup = style.Int64 == groupChatStyle
		m.SenderID = handleID.String
		m.HasAttachment = hasAttachments != 0
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// cocoaToTime 消息库时间转换（2001-01-01 起的纳秒数）
func cocoaToTime(cocoa int64) time.Time {
	return cocoaEpoch.Add(time.Duration(cocoa) * time.Nanosecond)
}

// timeToCocoa 反向转换，用于按时间过滤的查询
func timeToCocoa(t time.Time) int64 {
	return t.Sub(cocoaEpoch).Nanoseconds()
}

// copyFile 复制文件
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}
