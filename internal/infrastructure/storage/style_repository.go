package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// 确保 StyleRepositoryImpl 实现了接口
var _ domainAgent.StyleRepository = (*StyleRepositoryImpl)(nil)

// fallbackScanLimit 回退扫描的画像数量上限，避免画像表异常膨胀时拖慢查询
const fallbackScanLimit = 500

// StyleRepositoryImpl 风格画像仓储实现
type StyleRepositoryImpl struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStyleRepository 创建风格画像仓储实例
func NewStyleRepository(db *sql.DB) domainAgent.StyleRepository {
	return &StyleRepositoryImpl{
		db:     db,
		logger: log.NewModuleLogger("storage", "style_repository"),
	}
}

// Load 加载联系人画像
// 优先按联系人标识精确命中，未命中时回退扫描画像内的 contact/phone 字段
func (r *StyleRepositoryImpl) Load(contactID string) (*domainAgent.StyleProfile, error) {
	var raw string
	err := r.db.QueryRow(
		`SELECT profile FROM style_profiles WHERE contact_id = ?`, contactID,
	).Scan(&raw)
	if err == nil {
		return r.unmarshal(contactID, raw)
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("query style profile: %w", err)
	}
	return r.fallbackScan(contactID)
}

// fallbackScan 遍历已有画像，匹配显示名或电话等备选标识
func (r *StyleRepositoryImpl) fallbackScan(contactID string) (*domainAgent.StyleProfile, error) {
	rows, err := r.db.Query(
		`SELECT contact_id, profile FROM style_profiles LIMIT ?`, fallbackScanLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("scan style profiles: %w", err)
	}
	defer rows.Close()

	needle := normalizeIdentity(contactID)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		profile, err := r.unmarshal(id, raw)
		if err != nil {
			continue
		}
		if normalizeIdentity(profile.Contact) == needle ||
			(profile.Phone != "" && normalizeIdentity(profile.Phone) == needle) {
			r.logger.Debug("style profile matched via fallback scan",
				"contact_id", contactID, "stored_id", id)
			return profile, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Save 写入画像
func (r *StyleRepositoryImpl) Save(contactID string, profile *domainAgent.StyleProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal style profile: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO style_profiles (contact_id, profile, updated_at) VALUES (?, ?, ?)`,
		contactID, string(data), time.Now().Unix(),
	)
	return err
}

func (r *StyleRepositoryImpl) unmarshal(contactID, raw string) (*domainAgent.StyleProfile, error) {
	var profile domainAgent.StyleProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		r.logger.Warn("corrupt style profile JSON", "contact_id", contactID, "error", err)
		return nil, fmt.Errorf("unmarshal style profile: %w", err)
	}
	return &profile, nil
}

// normalizeIdentity 归一化联系人标识，忽略大小写与电话号码中的格式字符
func normalizeIdentity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return replacer.Replace(s)
}
