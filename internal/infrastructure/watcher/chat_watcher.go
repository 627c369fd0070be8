package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/petersenmatthew/MEI/internal/domain/events"
	"github.com/petersenmatthew/MEI/internal/infrastructure/config"
	"github.com/petersenmatthew/MEI/internal/infrastructure/log"
)

// WatchConfig ChatWatcher 配置
type WatchConfig struct {
	// StorePath 消息库文件路径
	StorePath string
	// DebounceDelay 防抖延迟：消息库写入是连续的 WAL 刷盘，合并成一次事件
	DebounceDelay time.Duration
}

// DefaultWatchConfig 返回默认配置
func DefaultWatchConfig(cfg *config.ChatStoreConfig) WatchConfig {
	path := cfg.Path
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, "Library", "Messages", "chat.db")
	}
	return WatchConfig{
		StorePath:     path,
		DebounceDelay: 500 * time.Millisecond,
	}
}

// ChatWatcher 消息库文件监听器
// 监听消息库所在目录，chat.db 及其 WAL/SHM 侧文件的写入都视为变更
type ChatWatcher struct {
	config   WatchConfig
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimer *time.Timer
	debounceMu    sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewChatWatcher 创建消息库监听器
func NewChatWatcher(config WatchConfig, eventBus events.EventBus) (*ChatWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ChatWatcher{
		config:   config,
		eventBus: eventBus,
		watcher:  watcher,
		logger:   log.NewModuleLogger("watcher", "chat_watcher"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动文件监听
// 监听目录不存在时记录警告后退化为纯轮询，不算启动失败
func (cw *ChatWatcher) Start() error {
	dir := filepath.Dir(cw.config.StorePath)
	if err := cw.watcher.Add(dir); err != nil {
		cw.logger.Warn("Failed to watch chat store directory, falling back to polling only",
			"dir", dir,
			"error", err,
		)
		return nil
	}

	cw.logger.Info("Watching chat store", "dir", dir)

	cw.wg.Add(1)
	go cw.watchLoop()

	return nil
}

// Stop 停止文件监听
func (cw *ChatWatcher) Stop() {
	cw.logger.Info("Stopping chat watcher")

	close(cw.stopCh)
	cw.watcher.Close()
	cw.wg.Wait()

	cw.debounceMu.Lock()
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceMu.Unlock()

	cw.logger.Info("Chat watcher stopped")
}

// watchLoop 事件监听循环
func (cw *ChatWatcher) watchLoop() {
	defer cw.wg.Done()

	for {
		select {
		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			cw.handleFsEvent(event)

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件（带防抖）
func (cw *ChatWatcher) handleFsEvent(fsEvent fsnotify.Event) {
	if !cw.isStoreFile(fsEvent.Name) {
		return
	}
	if !fsEvent.Has(fsnotify.Write) && !fsEvent.Has(fsnotify.Create) {
		return
	}

	cw.debounceMu.Lock()
	defer cw.debounceMu.Unlock()

	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.config.DebounceDelay, func() {
		cw.emitChangeEvent(fsEvent.Name)
	})
}

// isStoreFile 判断是否为消息库文件（含 -wal / -shm 侧文件）
func (cw *ChatWatcher) isStoreFile(path string) bool {
	base := filepath.Base(cw.config.StorePath)
	return strings.HasPrefix(filepath.Base(path), base)
}

// emitChangeEvent 发布消息库变更事件
func (cw *ChatWatcher) emitChangeEvent(path string) {
	cw.eventBus.Publish(&events.ChatStoreEvent{
		Path:      path,
		EventTime: time.Now(),
	})

	cw.logger.Debug("Chat store change emitted", "path", path)
}
