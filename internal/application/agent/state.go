package agent

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	domainAgent "github.com/petersenmatthew/MEI/internal/domain/agent"
	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// State 代理运行状态
// 循环独占写入，仪表盘侧只读快照，互斥锁保证两边不打架
type State struct {
	mu           sync.RWMutex
	settings     *domainAgent.Settings
	lastSelfSend map[string]time.Time

	kv     domainAgent.KVStore
	bus    events.EventBus
	logger *slog.Logger
}

// NewState 创建状态对象并加载持久化设置
// 设置缺失或损坏时回退到默认值
func NewState(kv domainAgent.KVStore, bus events.EventBus) *State {
	s := &State{
		settings:     domainAgent.DefaultSettings(),
		lastSelfSend: make(map[string]time.Time),
		kv:           kv,
		bus:          bus,
		logger:       log.NewModuleLogger("agent", "state"),
	}
	s.loadSettings()
	return s
}

func (s *State) loadSettings() {
	raw, found, err := s.kv.Load(domainAgent.KeySettings)
	if err != nil {
		s.logger.Error("Failed to load persisted settings, using defaults", "error", err)
		return
	}
	if !found {
		return
	}
	var settings domainAgent.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		s.logger.Error("Corrupt persisted settings, using defaults", "error", err)
		return
	}
	if !settings.Mode.Valid() {
		settings.Mode = domainAgent.ModePaused
	}
	s.settings = &settings
}

// Settings 设置快照（副本，调用方可随意持有）
func (s *State) Settings() domainAgent.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.settings
}

// Mode 当前运行模式
func (s *State) Mode() domainAgent.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Mode
}

// SetMode 切换运行模式并持久化，发布模式变更事件
func (s *State) SetMode(mode domainAgent.Mode, reason string) error {
	s.mu.Lock()
	oldMode := s.settings.Mode
	s.settings.Mode = mode
	err := s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if oldMode != mode && s.bus != nil {
		s.bus.Publish(&events.ModeChangedEvent{
			OldMode:   string(oldMode),
			NewMode:   string(mode),
			Reason:    reason,
			EventTime: time.Now(),
		})
	}
	s.logger.Info("Agent mode changed", "old", oldMode, "new", mode, "reason", reason)
	return nil
}

// UpdateSettings 整体替换设置并持久化
// 模式变更走 SetMode 的事件路径
func (s *State) UpdateSettings(settings *domainAgent.Settings) error {
	s.mu.Lock()
	oldMode := s.settings.Mode
	s.settings = settings
	err := s.persistLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if oldMode != settings.Mode && s.bus != nil {
		s.bus.Publish(&events.ModeChangedEvent{
			OldMode:   string(oldMode),
			NewMode:   string(settings.Mode),
			Reason:    "settings updated",
			EventTime: time.Now(),
		})
	}
	return nil
}

// persistLocked 在持锁状态下持久化设置
// 持久化失败只影响重启后的恢复，不回滚内存状态
func (s *State) persistLocked() error {
	data, err := json.Marshal(s.settings)
	if err != nil {
		return err
	}
	if err := s.kv.Save(domainAgent.KeySettings, string(data)); err != nil {
		s.logger.Error("Failed to persist settings", "error", err)
		return err
	}
	return nil
}

// RecordSelfSend 记录会话的最近自发送时刻
// 传入的时刻应已包含发送往返缓冲
func (s *State) RecordSelfSend(conversationID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSelfSend[conversationID] = at
}

// LastSelfSend 会话的最近自发送时刻，零值表示从未发送
func (s *State) LastSelfSend(conversationID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSelfSend[conversationID]
}
