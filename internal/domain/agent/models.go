package agent

import "time"

// Mode 代理运行模式
type Mode string

const (
	// ModeActive 正常运行：生成并实际发送回复
	ModeActive Mode = "active"
	// ModeShadow 影子模式：生成并记录候选回复，但不发送
	ModeShadow Mode = "shadow"
	// ModePaused 暂停：轮询空转，不处理消息
	ModePaused Mode = "paused"
	// ModeKilled 终止：命中 kill word 后的终态，需人工复位
	ModeKilled Mode = "killed"
)

// IsPolling 该模式下轮询循环是否处理消息
func (m Mode) IsPolling() bool {
	return m == ModeActive || m == ModeShadow
}

// Valid 是否为合法模式值
func (m Mode) Valid() bool {
	switch m {
	case ModeActive, ModeShadow, ModePaused, ModeKilled:
		return true
	}
	return false
}

// ContactPolicy 联系人参与策略
type ContactPolicy string

const (
	// PolicyActive 正常参与
	PolicyActive ContactPolicy = "active"
	// PolicyShadowOnly 仅影子模式（生成但不发送）
	PolicyShadowOnly ContactPolicy = "shadow_only"
	// PolicyWhitelist 仅列入白名单，不代表参与（需显式 active/shadow_only）
	PolicyWhitelist ContactPolicy = "whitelist"
	// PolicyBlacklist 拉黑，永不回复
	PolicyBlacklist ContactPolicy = "blacklist"
)

// ActiveHours 活跃时段窗口
// Enabled 为 false 时不限制时段
type ActiveHours struct {
	Enabled   bool `json:"enabled" yaml:"enabled"`
	StartHour int  `json:"start_hour" yaml:"start_hour"`
	EndHour   int  `json:"end_hour" yaml:"end_hour"`
}

// Contains 指定时刻是否落在活跃时段内
// 支持跨午夜窗口（如 22 点到 2 点）
func (h ActiveHours) Contains(t time.Time) bool {
	if !h.Enabled {
		return true
	}
	hour := t.Hour()
	if h.StartHour <= h.EndHour {
		return hour >= h.StartHour && hour < h.EndHour
	}
	return hour >= h.StartHour || hour < h.EndHour
}

// Settings 代理可调设置
// 由设置接口修改并持久化，循环启动时加载
type Settings struct {
	// Mode 运行模式
	Mode Mode `json:"mode"`
	// ConfidenceThreshold 回复置信度阈值，低于则 defer
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	// KillWords 终止词（大小写不敏感的子串匹配）
	KillWords []string `json:"kill_words"`
	// RestrictedTopics 受限话题集合
	RestrictedTopics []string `json:"restricted_topics"`
	// ActiveHours 活跃时段
	ActiveHours ActiveHours `json:"active_hours"`
	// RecentOutgoingWindow 用户近期回复回避窗口（秒）
	RecentOutgoingWindowSeconds int `json:"recent_outgoing_window_seconds"`
}

// DefaultSettings 默认设置
func DefaultSettings() *Settings {
	return &Settings{
		Mode:                        ModePaused,
		ConfidenceThreshold:         0.7,
		KillWords:                   []string{"mei stop"},
		RestrictedTopics:            nil,
		ActiveHours:                 ActiveHours{Enabled: false, StartHour: 9, EndHour: 23},
		RecentOutgoingWindowSeconds: 60,
	}
}
