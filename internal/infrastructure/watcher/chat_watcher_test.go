package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petersenmatthew/MEI/internal/domain/events"
)

func newTestWatcher(t *testing.T, storePath string) (*ChatWatcher, events.EventBus) {
	t.Helper()
	bus := NewEventBus()
	t.Cleanup(bus.Close)

	cw, err := NewChatWatcher(WatchConfig{
		StorePath:     storePath,
		DebounceDelay: 50 * time.Millisecond,
	}, bus)
	require.NoError(t, err)
	return cw, bus
}

func TestChatWatcher_EmitsOnStoreWrite(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "chat.db")
	require.NoError(t, os.WriteFile(storePath, []byte("initial"), 0644))

	cw, bus := newTestWatcher(t, storePath)

	var received atomic.Int32
	bus.Subscribe(events.ChatStoreChanged, events.HandlerFunc(func(event events.Event) error {
		received.Add(1)
		return nil
	}))

	require.NoError(t, cw.Start())
	defer cw.Stop()

	// 连续写入应被防抖合并
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(storePath, []byte("update"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return received.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// 防抖窗口远大于写入间隔，事件数应少于写入数
	time.Sleep(200 * time.Millisecond)
	assert.Less(t, received.Load(), int32(3))
}

func TestChatWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "chat.db")
	require.NoError(t, os.WriteFile(storePath, []byte("initial"), 0644))

	cw, bus := newTestWatcher(t, storePath)

	var received atomic.Int32
	bus.Subscribe(events.ChatStoreChanged, events.HandlerFunc(func(event events.Event) error {
		received.Add(1)
		return nil
	}))

	require.NoError(t, cw.Start())
	defer cw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), received.Load())
}

func TestChatWatcher_WALSideFileCounts(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "chat.db")
	require.NoError(t, os.WriteFile(storePath, []byte("initial"), 0644))

	cw, bus := newTestWatcher(t, storePath)

	var received atomic.Int32
	bus.Subscribe(events.ChatStoreChanged, events.HandlerFunc(func(event events.Event) error {
		received.Add(1)
		return nil
	}))

	require.NoError(t, cw.Start())
	defer cw.Stop()

	require.NoError(t, os.WriteFile(storePath+"-wal", []byte("wal"), 0644))

	assert.Eventually(t, func() bool {
		return received.Load() >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestChatWatcher_MissingDirFallsBack(t *testing.T) {
	cw, _ := newTestWatcher(t, filepath.Join("/nonexistent", "chat.db"))

	// 目录不存在时退化为纯轮询，不报错
	assert.NoError(t, cw.Start())
	cw.Stop()
}
